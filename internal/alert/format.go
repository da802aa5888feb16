package alert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TimestampLayout is used for every human-facing time in messages.
const TimestampLayout = "2006-01-02 15:04:05"

var hundred = decimal.NewFromInt(100)

// PercentChange returns (current-previous)/previous*100.
// previous must be non-zero.
func PercentChange(previous, current decimal.Decimal) decimal.Decimal {
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// USD formats v as "$1,234.57".
func USD(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-$" + groupThousands(v.Abs().StringFixed(2))
	}
	return "$" + groupThousands(v.StringFixed(2))
}

// SignedUSD formats v as "$+12.34" or "$-12.34".
func SignedUSD(v decimal.Decimal) string {
	return "$" + signed(v)
}

// SignedPercent formats v as "+4.00%".
func SignedPercent(v decimal.Decimal) string {
	return signed(v) + "%"
}

// Direction is the chart emoji for a change.
func Direction(change decimal.Decimal) string {
	if change.IsPositive() {
		return "📈"
	}
	return "📉"
}

func signed(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if v.Round(2).IsNegative() {
		return s
	}
	return "+" + strings.TrimPrefix(s, "-")
}

// groupThousands inserts commas into the integer part of a fixed-point string.
func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
