package bridge

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"relay-bridge/pkg/relay"
)

// DefaultReserve is held back by UseMax so the account can still pay the
// origin chain's own transaction fee.
var DefaultReserve = decimal.RequireFromString("0.0001")

// ParseAmount validates free-text numeric input. Empty, non-numeric, and
// negative values are rejected; a zero amount parses but is a normal idle
// condition for the session.
func ParseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(text)
	if err != nil || amount.IsNegative() {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// ToBaseUnits converts a human-unit amount to the asset's smallest
// indivisible unit, decimal-string encoded
func ToBaseUnits(amount decimal.Decimal, decimals int32) string {
	return amount.Shift(decimals).BigInt().String()
}

// FromBaseUnits converts a base-unit balance back to human units
func FromBaseUnits(baseUnits *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(baseUnits, -decimals)
}

// MaxSpendable returns the balance minus the safety reserve, clamped at
// zero and formatted to six decimals for the amount field.
func MaxSpendable(balance *big.Int, decimals int32, reserve decimal.Decimal) string {
	spendable := FromBaseUnits(balance, decimals).Sub(reserve)
	if spendable.IsNegative() {
		spendable = decimal.Zero
	}
	return spendable.StringFixed(6)
}

// ReceiveDisplay formats the quote's estimated output to four decimals.
// Returns "0" when the quote has no priced output leg.
func ReceiveDisplay(quote *relay.Quote, decimals int32) string {
	if quote == nil || quote.Details == nil || quote.Details.CurrencyOut == nil {
		return "0"
	}
	out := quote.Details.CurrencyOut
	if out.Amount != "" {
		if baseUnits, ok := new(big.Int).SetString(out.Amount, 10); ok {
			return FromBaseUnits(baseUnits, decimals).StringFixed(4)
		}
	}
	if out.AmountFormatted != "" {
		if formatted, err := decimal.NewFromString(out.AmountFormatted); err == nil {
			return formatted.StringFixed(4)
		}
	}
	return "0"
}
