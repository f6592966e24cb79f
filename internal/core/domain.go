package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// DateLength is the exact length of a YYYY-MM-DD date.
	DateLength = 10
	// DateSeparator sits at positions 4 and 7 of a date.
	DateSeparator = '-'
)

type (
	// Date is a calendar date string in YYYY-MM-DD form. Only its syntax is
	// checked; day-of-month ranges are not.
	Date string

	// Expense is money spent in a category.
	Expense struct {
		Amount   decimal.Decimal
		Category string
		Date     Date
	}

	// Income is money received from a source.
	Income struct {
		Amount decimal.Decimal
		Source string
		Date   Date
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount: must be greater than zero")
	ErrInvalidLimit           = errors.New("invalid budget limit: must not be negative")
	ErrInvalidDate            = errors.New("invalid date: expected YYYY-MM-DD")
	ErrInvalidIndex           = errors.New("invalid index")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrPersistenceCorrupt     = errors.New("persistence corrupt")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrInvalidUsername        = errors.New("invalid username")
	ErrProfileExists          = errors.New("profile already exists")
	ErrNoActiveProfile        = errors.New("no active profile")
)

// Validate passes iff d is exactly 10 characters with a separator at
// positions 4 and 7 and decimal digits everywhere else.
func (d Date) Validate() error {
	if len(d) != DateLength {
		return ErrInvalidDate
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		if i == 4 || i == 7 {
			if c != DateSeparator {
				return ErrInvalidDate
			}
			continue
		}
		if c < '0' || c > '9' {
			return ErrInvalidDate
		}
	}
	return nil
}

// Month returns the YYYY-MM prefix of the date. The date must be valid.
func (d Date) Month() string {
	return string(d[:7])
}

func (d Date) String() string {
	return string(d)
}

// ValidateDate is the function form of Date.Validate.
func ValidateDate(s string) error {
	return Date(s).Validate()
}

func (e Expense) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (i Income) Validate() error {
	if err := ValidateAmount(i.Amount); err != nil {
		return err
	}
	return i.Date.Validate()
}
