package spreadsheet

import (
	"regexp"
	"strings"

	"reembolsos/pkg/types"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

var (
	// 1.234,56 / 1234,56 / 7. A dot-only value with 3-digit groups ("1.500") is read as thousands.
	brazilianNumber = regexp.MustCompile(`^(0|[1-9]\d{0,2}(\.\d{3})+|\d+)(,\d+)?$`)
	// 1234.56
	dotDecimalNumber = regexp.MustCompile(`^\d+\.\d+$`)
)

// ParseAmount reads numbers typed either as "1.234,56" or "1234.56", with an optional "R$" prefix
// and sign. Mixed or ambiguous separators ("1,234.56", "1.234.5") are not numbers.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))

	sign := ""
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = "-", strings.TrimSpace(rest)
	}
	if s == "" {
		return decimal.Zero, false
	}

	switch {
	case brazilianNumber.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dotDecimalNumber.MatchString(s):
	default:
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MileageAmount returns the row amount, computing distance x rate when the amount was left blank.
func MileageAmount(row types.MileageRow) string {
	if strings.TrimSpace(row.Amount) != "" {
		return row.Amount
	}

	km, ok := ParseAmount(row.Distance)
	if !ok {
		return row.Amount
	}
	rate, ok := ParseAmount(row.Rate)
	if !ok {
		return row.Amount
	}

	return km.Mul(rate).Round(2).StringFixed(2)
}

// Total sums every parseable amount that fits in the template.
func Total(sub *types.Submission, layout Layout) decimal.Decimal {
	total := decimal.Zero

	for i, row := range sub.Expenses {
		if i >= layout.Expense.Capacity {
			break
		}
		if d, ok := ParseAmount(row.Amount); ok {
			total = total.Add(d)
		}
	}

	for i, row := range sub.Mileage {
		if i >= layout.Mileage.Capacity {
			break
		}
		if d, ok := ParseAmount(MileageAmount(row)); ok {
			total = total.Add(d)
		}
	}

	return total
}

// FormatBRL renders d as "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	brl := accounting.Accounting{Symbol: "R$ ", Precision: 2, Thousand: ".", Decimal: ","}
	return brl.FormatMoneyDecimal(d)
}

// numericCell stores parseable numbers as numbers so the template's formulas can sum them.
func numericCell(raw string) any {
	if d, ok := ParseAmount(raw); ok {
		return d.InexactFloat64()
	}
	return raw
}
