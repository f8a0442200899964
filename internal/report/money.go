package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/growthcast/pkg/utils"
)

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = "USD"

// FormatMoney renders amount in the given ISO 4217 currency, e.g.
// FormatMoney(1234.5, "USD") → "$1,234.50". Unknown codes fall back to a
// grouped number followed by the code.
func FormatMoney(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return utils.FormatGrouped(amount) + " " + code
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), code).Display()
}
