package view

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// money renders an amount as "EUR 1,200".
func money(currency string, amount float64) string {
	s := printer.Sprintf("%v", number.Decimal(amount, number.MaxFractionDigits(2)))
	return strings.TrimSpace(currency + " " + s)
}
