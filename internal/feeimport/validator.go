package feeimport

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ValidateRow checks one row against the column rules of t. It returns either
// a record or the row's error messages, never both.
func ValidateRow(t ImportType, row ImportRow) (Record, []string) {
	v := rowChecker{row: row}
	switch t {
	case ImportBusiness:
		rec := BusinessFeeRecord{
			Line:         row.Line,
			BusinessType: v.text(ColBusinessType),
			Category:     v.text(ColCategory),
			FeeAmount:    v.amount(ColFeeAmount),
			IsActive:     v.active(),
		}
		if len(v.errs) > 0 {
			return nil, v.errs
		}
		return rec, nil
	case ImportProperty:
		rec := PropertyFeeRecord{
			Line:        row.Line,
			Structure:   v.text(ColStructure),
			PropertyUse: v.propertyUse(),
			FeePerRoom:  v.amount(ColFeePerRoom),
			IsActive:    v.active(),
		}
		if len(v.errs) > 0 {
			return nil, v.errs
		}
		return rec, nil
	}
	return nil, []string{fmt.Sprintf("Row %d: unsupported import type %q", row.Line, t)}
}

// Validation is the batch result of validating every parsed row.
type Validation struct {
	Records []Record
	Errors  []string
	// Rejected counts rows that produced at least one error.
	Rejected int
}

// ValidateRows validates every row independently. Unless acceptValid is set,
// a single failing row empties Records.
func ValidateRows(t ImportType, rows []ImportRow, acceptValid bool) Validation {
	var out Validation
	for _, row := range rows {
		rec, errs := ValidateRow(t, row)
		if len(errs) > 0 {
			out.Rejected++
			out.Errors = append(out.Errors, errs...)
			continue
		}
		out.Records = append(out.Records, rec)
	}
	if out.Rejected > 0 && !acceptValid {
		out.Records = nil
	}
	return out
}

type rowChecker struct {
	row  ImportRow
	errs []string
}

func (v *rowChecker) fail(format string, args ...interface{}) {
	v.errs = append(v.errs, fmt.Sprintf("Row %d: ", v.row.Line)+fmt.Sprintf(format, args...))
}

// required returns the trimmed value of col, recording an error when the
// column is missing or the cell is blank.
func (v *rowChecker) required(col string) (string, bool) {
	raw, ok := v.row.Get(col)
	if !ok {
		v.fail("missing required column %q (columns present: %s)", col, strings.Join(v.row.Columns(), ", "))
		return "", false
	}
	val := strings.TrimSpace(raw)
	if val == "" {
		v.fail("%s is required", col)
		return "", false
	}
	return val, true
}

func (v *rowChecker) text(col string) string {
	val, _ := v.required(col)
	return val
}

func (v *rowChecker) propertyUse() string {
	val, ok := v.required(ColPropertyUse)
	if !ok {
		return ""
	}
	if val != PropertyUseCommercial && val != PropertyUseResidential {
		v.fail("%s %q is not valid (expected %s or %s)", ColPropertyUse, val, PropertyUseCommercial, PropertyUseResidential)
		return ""
	}
	return val
}

func (v *rowChecker) amount(col string) decimal.Decimal {
	raw, ok := v.required(col)
	if !ok {
		return decimal.Zero
	}
	d, err := ParseAmount(raw)
	if err != nil {
		v.fail("%s %q is not a valid amount: %v", col, raw, err)
		return decimal.Zero
	}
	return d
}

func (v *rowChecker) active() bool {
	raw, ok := v.row.Get(ColIsActive)
	if !ok {
		return true
	}
	return parseActive(raw)
}

// parseActive treats a blank cell like an absent column.
func parseActive(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "1", "true", "yes", "active":
		return true
	}
	return false
}

// ParseAmount parses a non-negative amount rounded to two places. A single
// currency token may lead or trail the number ("GHS 1,200.50", "GH₵ 25",
// "25$"); commas and whitespace inside the number are thousands separators.
// Any other letter or symbol is an error.
func ParseAmount(raw string) (decimal.Decimal, error) {
	body := strings.TrimSpace(raw)
	lead := strings.IndexFunc(body, func(r rune) bool { return !isCurrencyRune(r) })
	if lead < 0 {
		return decimal.Zero, fmt.Errorf("no digits")
	}
	if !currencyToken(body[:lead]) {
		return decimal.Zero, fmt.Errorf("unexpected text %q", body[:lead])
	}
	body = body[lead:]
	trail := strings.LastIndexFunc(body, func(r rune) bool { return !isCurrencyRune(r) }) + 1
	if !currencyToken(body[trail:]) {
		return decimal.Zero, fmt.Errorf("unexpected text %q", body[trail:])
	}
	body = body[:trail]

	var b strings.Builder
	for _, r := range body {
		switch {
		case r == ',', unicode.IsSpace(r):
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		default:
			return decimal.Zero, fmt.Errorf("unexpected character %q", r)
		}
	}
	cleaned := b.String()
	if strings.IndexFunc(cleaned, unicode.IsDigit) < 0 {
		return decimal.Zero, fmt.Errorf("no digits")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return d.Round(2), nil
}

func isCurrencyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Sc, r)
}

// currencyToken accepts "", a three-letter upper-case code ("GHS") or
// currency symbols with an optional upper-case prefix of up to three letters
// ("$", "GH₵", "US$").
func currencyToken(tok string) bool {
	if tok == "" {
		return true
	}
	letters := strings.IndexFunc(tok, func(r rune) bool { return r < 'A' || r > 'Z' })
	if letters < 0 {
		return len(tok) == 3
	}
	if letters > 3 {
		return false
	}
	for _, r := range tok[letters:] {
		if !unicode.Is(unicode.Sc, r) {
			return false
		}
	}
	return true
}
