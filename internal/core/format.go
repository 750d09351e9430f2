package core

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders Money for display in a fixed currency and locale.
type Formatter struct {
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
	scale   int
	symbol  string
}

// NewFormatter validates an ISO-4217 code and a BCP 47 locale.
func NewFormatter(currencyCode, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", currencyCode, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	p := message.NewPrinter(tag)
	scale, _ := currency.Standard.Rounding(unit)
	return &Formatter{
		unit:    unit,
		tag:     tag,
		printer: p,
		scale:   scale,
		symbol:  p.Sprint(currency.Symbol(unit)),
	}, nil
}

// Currency returns the ISO-4217 code.
func (f *Formatter) Currency() string { return f.unit.String() }

// Locale returns the BCP 47 tag.
func (f *Formatter) Locale() string { return f.tag.String() }

// Format renders m with the currency symbol and locale digit grouping, e.g. "$1,234.50".
func (f *Formatter) Format(m Money) string {
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		m = Money{Cents: -m.Cents}
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(m.Float64(), number.Scale(f.scale)))
}

// FormatPercent renders a percentage with one decimal, e.g. "62.5%".
func (f *Formatter) FormatPercent(p float64) string {
	return f.printer.Sprintf("%.1f%%", p)
}
