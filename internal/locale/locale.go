// Package locale formats numbers for the configured locale.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter is safe for concurrent use.
type Formatter struct {
	p *message.Printer
}

// New returns a formatter for a BCP 47 tag such as "en-US". Unknown tags
// fall back to the root locale.
func New(tag string) *Formatter {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.Und
	}
	return &Formatter{p: message.NewPrinter(t)}
}

// Int formats n with grouping separators.
func (f *Formatter) Int(n int) string {
	return f.p.Sprint(number.Decimal(n))
}

// Decimal formats v with at most maxFrac fraction digits.
func (f *Formatter) Decimal(v float64, maxFrac int) string {
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(maxFrac)))
}
