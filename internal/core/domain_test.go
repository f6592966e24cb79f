package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  string
		ok bool
	}{
		{"2024-01-01", true},
		{"2025-12-31", true},
		{"0000-99-99", true}, // syntactic check only
		{"2024-1-01", false},
		{"2024/01/01", false},
		{"2024-01-1a", false},
		{"2024-01-011", false},
		{"", false},
		{"20240101xx", false},
	}
	for _, tc := range cases {
		err := ValidateDate(tc.d)
		if tc.ok {
			assert.NoError(t, err, "date %q", tc.d)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDate, "date %q", tc.d)
		}
	}
}

func TestDateMonth(t *testing.T) {
	assert.Equal(t, "2024-03", Date("2024-03-15").Month())
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: decimal.NewFromInt(100), Category: "food", Date: "2024-01-01"}
	assert.NoError(t, good.Validate())

	bads := []struct {
		e   Expense
		err error
	}{
		{Expense{Amount: decimal.NewFromInt(-5), Category: "food", Date: "2024-01-01"}, ErrInvalidAmount},
		{Expense{Amount: decimal.Zero, Category: "food", Date: "2024-01-01"}, ErrInvalidAmount},
		{Expense{Amount: decimal.NewFromInt(5), Category: "food", Date: "2024/01/01"}, ErrInvalidDate},
		// amount is checked first
		{Expense{Amount: decimal.Zero, Category: "food", Date: "bad"}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		assert.ErrorIs(t, tc.e.Validate(), tc.err, "case %d", i)
	}
}

func TestIncomeValidate(t *testing.T) {
	assert.NoError(t, Income{Amount: decimal.NewFromInt(1000), Source: "salary", Date: "2024-01-31"}.Validate())
	assert.ErrorIs(t, Income{Amount: decimal.NewFromInt(1000), Source: "salary", Date: "2024-1-31"}.Validate(), ErrInvalidDate)
}
