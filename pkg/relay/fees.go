package relay

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeUnavailable is displayed when no strategy can price the route's cost.
const FeeUnavailable = "-"

// feeStrategy attempts to derive a displayable USD fee from a quote.
// Strategies are total: they report "no match" instead of failing.
type feeStrategy func(q *Quote) (string, bool)

// Ordered by trust: an explicit total beats a structured breakdown beats an
// implied input/output spread.
var feeStrategies = []feeStrategy{
	feeFromStringTotal,
	feeFromBreakdown,
	feeFromSpread,
}

// FeeDisplay derives a human-displayable USD fee from a quote. It returns a
// two-decimal amount with the currency symbol stripped, or FeeUnavailable
// when the quote carries no usable fee data. It never returns a negative
// amount.
func FeeDisplay(q *Quote) string {
	if q == nil {
		return FeeUnavailable
	}
	for _, strategy := range feeStrategies {
		if display, ok := strategy(q); ok {
			return display
		}
	}
	return FeeUnavailable
}

// feeFromStringTotal handles routes where the API pre-formats the total as a
// currency string, e.g. "$3.25".
func feeFromStringTotal(q *Quote) (string, bool) {
	if q.Fees == nil {
		return "", false
	}
	var total string
	if err := json.Unmarshal(q.Fees.Total, &total); err != nil {
		return "", false
	}
	total = strings.TrimSpace(strings.Replace(total, "$", "", 1))
	if total == "" {
		return "", false
	}
	return total, true
}

// feeFromBreakdown handles routes with a structured fee object, preferring
// the relayer fee over the generic total.
func feeFromBreakdown(q *Quote) (string, bool) {
	if q.Fees == nil {
		return "", false
	}
	for _, raw := range []json.RawMessage{q.Fees.Relayer, q.Fees.Total} {
		var breakdown FeeBreakdown
		if err := json.Unmarshal(raw, &breakdown); err != nil {
			continue
		}
		for _, field := range []string{breakdown.AmountUsd, breakdown.Amount, breakdown.Formatted} {
			if field == "" {
				continue
			}
			amount, err := decimal.NewFromString(field)
			if err != nil || amount.IsNegative() {
				continue
			}
			return amount.StringFixed(2), true
		}
	}
	return "", false
}

// feeFromSpread implies the fee from the USD difference between the input
// and output legs. A non-positive spread is not a displayable fee.
func feeFromSpread(q *Quote) (string, bool) {
	if q.Details == nil || q.Details.CurrencyIn == nil || q.Details.CurrencyOut == nil {
		return "", false
	}
	in, err := decimal.NewFromString(q.Details.CurrencyIn.AmountUsd)
	if err != nil {
		return "", false
	}
	out, err := decimal.NewFromString(q.Details.CurrencyOut.AmountUsd)
	if err != nil {
		return "", false
	}
	spread := in.Sub(out)
	if !spread.IsPositive() {
		return "", false
	}
	return spread.StringFixed(2), true
}
