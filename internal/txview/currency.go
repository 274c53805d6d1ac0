package txview

import (
	"strconv"
	"strings"
)

const nairaSymbol = "₦"

// FormatNaira renders a numeric or numeric-like balance string as naira with
// thousands separators and exactly two fraction digits: "5000" becomes
// "₦5,000.00". All characters other than digits and the decimal point are
// stripped before parsing. An unparsable input falls back to prefixing the
// raw string with the currency symbol rather than failing; this mirrors the
// backend's legacy behavior and keeps garbage visible instead of hiding it.
func FormatNaira(balance string) string {
	if balance == "" {
		return nairaSymbol + "0"
	}

	cleaned := stripNonNumeric(balance)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		if strings.HasPrefix(balance, nairaSymbol) {
			return balance
		}
		return nairaSymbol + balance
	}
	return nairaSymbol + formatThousands(value)
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatThousands renders value with two fraction digits and comma-grouped
// integer digits.
func formatThousands(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', 2, 64)

	negative := strings.HasPrefix(formatted, "-")
	if negative {
		formatted = formatted[1:]
	}

	intPart := formatted
	fracPart := ""
	if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
		intPart = formatted[:dot]
		fracPart = formatted[dot:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	b.WriteString(fracPart)
	return b.String()
}
