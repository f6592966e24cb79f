package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUsername  = "username"
	FieldOperation = "operation"
	FieldEntryKind = "entry_kind"
	FieldIndex     = "index"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldSource    = "source"
	FieldDate      = "date"
	FieldBackend   = "backend"
	FieldError     = "error"
	FieldErrorType = "error_type"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentShell   = "shell"
	ComponentLedger  = "ledger"
	ComponentProfile = "profile"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpAddExpense    = "add_expense"
	OpUpdateExpense = "update_expense"
	OpDeleteExpense = "delete_expense"
	OpAddIncome     = "add_income"
	OpUpdateIncome  = "update_income"
	OpDeleteIncome  = "delete_income"
	OpSetBudget     = "set_budget"
	OpAddProfile    = "add_profile"
	OpSwitchProfile = "switch_profile"
	OpLoad          = "load"
	OpSave          = "save"
	OpPublish       = "publish"
	OpStartup       = "startup"
	OpShutdown      = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypePersistence   = "persistence_error"
	ErrorTypeCorrupt       = "corrupt_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithUsername adds the profile name
func (f LogFields) WithUsername(username string) LogFields {
	f[FieldUsername] = username
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds entry-related fields. label is the category for expenses
// and the source for incomes.
func (f LogFields) WithEntry(kind string, index int, amount, label, date string) LogFields {
	f[FieldEntryKind] = kind
	f[FieldIndex] = index
	f[FieldAmount] = amount
	if kind == "income" {
		f[FieldSource] = label
	} else {
		f[FieldCategory] = label
	}
	f[FieldDate] = date
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
