package portfolio

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/overseas-dashboard/internal/external/kis"
)

// fieldParser parses text numerics and records every failure instead of
// stopping at the first one
type fieldParser struct {
	errs ParseErrors
}

func (p *fieldParser) required(index int, ticker, field string, value kis.Text) decimal.Decimal {
	d, ok := parseNumber(value.String())
	if !ok {
		p.errs = append(p.errs, &ParseError{Index: index, Ticker: ticker, Field: field, Value: value.String()})
		return decimal.Zero
	}
	return d
}

// optional returns ok=false for an absent value and records an error only
// when a value is present but malformed
func (p *fieldParser) optional(index int, ticker, field string, value kis.Text) (decimal.Decimal, bool) {
	if strings.TrimSpace(value.String()) == "" {
		return decimal.Zero, false
	}
	return p.required(index, ticker, field, value), true
}

func (p *fieldParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}

// parseNumber accepts KIS numerics such as "250.0000", " 10 " and "1,234.5"
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
