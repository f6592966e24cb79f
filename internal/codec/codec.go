// Package codec serialises a ledger snapshot to the sectioned text record
// stored per user, and parses it back.
//
// The record is five sections in fixed order. Each is a count line followed by
// that many comma-separated lines:
//
//	<n> expenses        amount,category,date
//	<n> incomes         amount,source,date
//	<n> budget limits   category,limit
//	<n> spent index     category,amount
//	<n> monthly index   month,amount
//
// Lines follow RFC 4180: a field holding a comma, a double quote, CR/LF or a
// leading space is wrapped in double quotes with inner quotes doubled. Any
// other line is the bare comma-joined fields. Amounts are stored as their full
// precision decimal text. Map sections are written in ascending key order.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/ledger"
)

const (
	sectionExpenses = "expenses"
	sectionIncomes  = "incomes"
	sectionLimits   = "budget limits"
	sectionSpent    = "spent index"
	sectionMonthly  = "monthly index"
)

// Marshal encodes s into a new buffer.
func Marshal(s ledger.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data. On corruption it returns the prefix parsed so far
// together with an error wrapping core.ErrPersistenceCorrupt.
func Unmarshal(data []byte) (ledger.Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes s to w.
func Encode(w io.Writer, s ledger.Snapshot) error {
	cw := csv.NewWriter(w)

	writeCount(cw, len(s.Expenses))
	for _, e := range s.Expenses {
		_ = cw.Write([]string{e.Amount.String(), e.Category, e.Date.String()})
	}
	writeCount(cw, len(s.Incomes))
	for _, in := range s.Incomes {
		_ = cw.Write([]string{in.Amount.String(), in.Source, in.Date.String()})
	}
	writeMap(cw, s.Limits)
	writeMap(cw, s.Spent)
	writeMap(cw, s.Monthly)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return nil
}

// csv.Writer keeps the first error and reports it from Error after Flush.
func writeCount(cw *csv.Writer, n int) {
	_ = cw.Write([]string{strconv.Itoa(n)})
}

func writeMap(cw *csv.Writer, m map[string]decimal.Decimal) {
	writeCount(cw, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		_ = cw.Write([]string{k, m[k].String()})
	}
}

// Decode reads a record from r. An empty input decodes to an empty snapshot.
// On corruption the sections and lines already parsed are kept in the
// returned snapshot.
func Decode(r io.Reader) (ledger.Snapshot, error) {
	d := &decoder{r: csv.NewReader(r)}
	d.r.FieldsPerRecord = -1
	s := ledger.Snapshot{
		Limits:  make(map[string]decimal.Decimal),
		Spent:   make(map[string]decimal.Decimal),
		Monthly: make(map[string]decimal.Decimal),
	}

	n, err := d.count(sectionExpenses)
	if errors.Is(err, io.EOF) && d.line == 0 {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	for i := 0; i < n; i++ {
		rec, err := d.record(sectionExpenses, 3)
		if err != nil {
			return s, err
		}
		amount, err := d.amount(rec[0])
		if err != nil {
			return s, err
		}
		date, err := d.date(rec[2])
		if err != nil {
			return s, err
		}
		s.Expenses = append(s.Expenses, core.Expense{Amount: amount, Category: rec[1], Date: date})
	}

	if n, err = d.count(sectionIncomes); err != nil {
		return s, err
	}
	for i := 0; i < n; i++ {
		rec, err := d.record(sectionIncomes, 3)
		if err != nil {
			return s, err
		}
		amount, err := d.amount(rec[0])
		if err != nil {
			return s, err
		}
		date, err := d.date(rec[2])
		if err != nil {
			return s, err
		}
		s.Incomes = append(s.Incomes, core.Income{Amount: amount, Source: rec[1], Date: date})
	}

	if err := d.decimalMap(sectionLimits, s.Limits, nil, d.limit); err != nil {
		return s, err
	}
	if err := d.decimalMap(sectionSpent, s.Spent, nil, d.value); err != nil {
		return s, err
	}
	if err := d.decimalMap(sectionMonthly, s.Monthly, d.month, d.value); err != nil {
		return s, err
	}

	_, err = d.read("trailer")
	switch {
	case errors.Is(err, io.EOF):
		return s, nil
	case err != nil:
		return s, err
	default:
		return s, d.corrupt("trailing data after %s section", sectionMonthly)
	}
}

type decoder struct {
	r    *csv.Reader
	line int
}

func (d *decoder) corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", core.ErrPersistenceCorrupt, d.line, fmt.Sprintf(format, args...))
}

func (d *decoder) read(section string) ([]string, error) {
	rec, err := d.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			d.line = pe.Line
			return nil, d.corrupt("%s: %v", section, pe.Err)
		}
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read record: %v", core.ErrPersistenceUnavailable, err)
	}
	d.line, _ = d.r.FieldPos(0)
	return rec, nil
}

func (d *decoder) count(section string) (int, error) {
	rec, err := d.read(section)
	if errors.Is(err, io.EOF) {
		if d.line == 0 {
			return 0, io.EOF
		}
		return 0, d.corrupt("missing %s count", section)
	}
	if err != nil {
		return 0, err
	}
	if len(rec) != 1 {
		return 0, d.corrupt("%s count: want 1 field, got %d", section, len(rec))
	}
	n, err := strconv.Atoi(rec[0])
	if err != nil || n < 0 {
		return 0, d.corrupt("%s count: invalid %q", section, rec[0])
	}
	return n, nil
}

func (d *decoder) record(section string, fields int) ([]string, error) {
	rec, err := d.read(section)
	if errors.Is(err, io.EOF) {
		return nil, d.corrupt("%s: unexpected end of record", section)
	}
	if err != nil {
		return nil, err
	}
	if len(rec) != fields {
		return nil, d.corrupt("%s: want %d fields, got %d", section, fields, len(rec))
	}
	return rec, nil
}

func (d *decoder) decimalMap(section string, m map[string]decimal.Decimal, key func(string) error, value func(string) (decimal.Decimal, error)) error {
	n, err := d.count(section)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		rec, err := d.record(section, 2)
		if err != nil {
			return err
		}
		if key != nil {
			if err := key(rec[0]); err != nil {
				return err
			}
		}
		if _, dup := m[rec[0]]; dup {
			return d.corrupt("%s: duplicate key %q", section, rec[0])
		}
		v, err := value(rec[1])
		if err != nil {
			return err
		}
		m[rec[0]] = v
	}
	return nil
}

func (d *decoder) value(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, d.corrupt("invalid decimal %q", s)
	}
	return v, nil
}

func (d *decoder) amount(s string) (decimal.Decimal, error) {
	v, err := d.value(s)
	if err != nil {
		return v, err
	}
	if core.ValidateAmount(v) != nil {
		return decimal.Zero, d.corrupt("non-positive amount %q", s)
	}
	return v, nil
}

func (d *decoder) limit(s string) (decimal.Decimal, error) {
	v, err := d.value(s)
	if err != nil {
		return v, err
	}
	if core.ValidateLimit(v) != nil {
		return decimal.Zero, d.corrupt("negative limit %q", s)
	}
	return v, nil
}

func (d *decoder) date(s string) (core.Date, error) {
	if core.ValidateDate(s) != nil {
		return "", d.corrupt("invalid date %q", s)
	}
	return core.Date(s), nil
}

func (d *decoder) month(s string) error {
	// A month key is a date without its day.
	if len(s) != 7 || core.ValidateDate(s+"-01") != nil {
		return d.corrupt("invalid month %q", s)
	}
	return nil
}
