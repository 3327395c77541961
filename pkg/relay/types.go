package relay

import "encoding/json"

// ZeroAddress is the conventional placeholder for the native currency and
// for previewing quotes without a connected wallet.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TradeTypeExactInput quotes a route for a fixed input amount.
const TradeTypeExactInput = "EXACT_INPUT"

// QuoteRequest describes a bridging route to be priced
type QuoteRequest struct {
	User                string `json:"user"`
	Recipient           string `json:"recipient"`
	OriginChainID       int64  `json:"originChainId"`
	DestinationChainID  int64  `json:"destinationChainId"`
	OriginCurrency      string `json:"originCurrency"`
	DestinationCurrency string `json:"destinationCurrency"`
	// Amount is in base units of the origin currency, decimal-string encoded
	Amount    string `json:"amount"`
	TradeType string `json:"tradeType"`
	Referrer  string `json:"referrer,omitempty"`
}

// Quote is a priced bridging route returned by the Relay API
type Quote struct {
	Steps   []Step        `json:"steps"`
	Fees    *Fees         `json:"fees,omitempty"`
	Details *QuoteDetails `json:"details,omitempty"`
}

// Fees keeps the per-leg fee entries as raw JSON. The API is not consistent
// here: depending on the route a field can be a formatted currency string or
// a structured breakdown object. Decoding is deferred to the fee strategies.
type Fees struct {
	Gas     json.RawMessage `json:"gas,omitempty"`
	Relayer json.RawMessage `json:"relayer,omitempty"`
	Total   json.RawMessage `json:"total,omitempty"`
}

// FeeBreakdown is the structured form of a fee entry
type FeeBreakdown struct {
	AmountUsd string `json:"amountUsd,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// CurrencyAmount is one leg of a priced route
type CurrencyAmount struct {
	Amount          string `json:"amount,omitempty"` // base units
	AmountFormatted string `json:"amountFormatted,omitempty"`
	AmountUsd       string `json:"amountUsd,omitempty"`
}

// QuoteDetails carries the priced legs and route metadata
type QuoteDetails struct {
	CurrencyIn   *CurrencyAmount `json:"currencyIn,omitempty"`
	CurrencyOut  *CurrencyAmount `json:"currencyOut,omitempty"`
	Rate         string          `json:"rate,omitempty"`
	TimeEstimate float64         `json:"timeEstimate,omitempty"`
}

// Step is one stage of route execution, usually a single transaction
type Step struct {
	ID          string     `json:"id"`
	Action      string     `json:"action,omitempty"`
	Description string     `json:"description,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	RequestID   string     `json:"requestId,omitempty"`
	Items       []StepItem `json:"items"`
}

// StepItem is a single transaction within a step
type StepItem struct {
	Status string `json:"status,omitempty"`
	Data   TxData `json:"data"`
}

// TxData is the transaction payload a signer must submit
type TxData struct {
	From                 string `json:"from,omitempty"`
	To                   string `json:"to"`
	Data                 string `json:"data,omitempty"`
	Value                string `json:"value,omitempty"`
	ChainID              int64  `json:"chainId,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
}

// RequestID returns the route's request identifier, used for status lookups.
// Empty when the quote carries no executable steps.
func (q *Quote) RequestID() string {
	for _, step := range q.Steps {
		if step.RequestID != "" {
			return step.RequestID
		}
	}
	return ""
}

// StatusResponse is the execution status of a submitted route
type StatusResponse struct {
	Status             string   `json:"status"`
	Details            string   `json:"details,omitempty"`
	InTxHashes         []string `json:"inTxHashes,omitempty"`
	TxHashes           []string `json:"txHashes,omitempty"`
	OriginChainID      int64    `json:"originChainId,omitempty"`
	DestinationChainID int64    `json:"destinationChainId,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"`
}

// Execution statuses reported by the API
const (
	StatusWaiting = "waiting"
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusRefund  = "refund"
)

// Terminal reports whether the status will no longer change
func (s *StatusResponse) Terminal() bool {
	switch s.Status {
	case StatusSuccess, StatusFailure, StatusRefund:
		return true
	default:
		return false
	}
}
