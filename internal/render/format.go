package render

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency is used for amounts and market caps.
const Currency = money.CNY

// Number formats d with thousands separators and up to two decimals.
func Number(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.InexactFloat64(), 2)
}

// Percent formats a return already expressed in percent.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// Amount formats d as CNY.
func Amount(d decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, Currency).Display()
}

// Volume formats a share count as an integer with separators.
func Volume(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart())
}

// Count formats an item count with separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Ago formats t relative to now; zero times render as "never".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Size formats a byte count.
func Size(n int) string {
	return humanize.Bytes(uint64(n))
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
