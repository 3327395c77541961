package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"relay-bridge/pkg/relay"
)

// State is the session's position in the bridging flow. The four variants
// make the illegal flag combinations (quoting while swapping, swapping a
// stale quote) unrepresentable.
type State int

const (
	// StateIdle means no usable amount is entered and no quote is held
	StateIdle State = iota
	// StateQuoting means a quote request is in flight
	StateQuoting
	// StateQuoteReady means a quote is held and can be swapped
	StateQuoteReady
	// StateSwapping means the held quote is being executed
	StateSwapping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuoting:
		return "quoting"
	case StateQuoteReady:
		return "quote-ready"
	case StateSwapping:
		return "swapping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultDebounce is how long input must be stable before a quote is fetched.
const DefaultDebounce = 500 * time.Millisecond

// ErrNotReady is returned when Swap is called without a quote or a signer.
var ErrNotReady = errors.New("no quote or signer available")

// Route is the fixed trading pair the session bridges across
type Route struct {
	OriginChainID      int64
	DestinationChainID int64
	Currency           string
	Decimals           int32
}

// DefaultRoute bridges native ETH from Base to Arbitrum One
var DefaultRoute = Route{
	OriginChainID:      8453,
	DestinationChainID: 42161,
	Currency:           relay.ZeroAddress,
	Decimals:           18,
}

// QuoteService prices and executes bridging routes
type QuoteService interface {
	Quote(ctx context.Context, req *relay.QuoteRequest) (*relay.Quote, error)
	Execute(ctx context.Context, quote *relay.Quote, signer relay.Signer, onProgress func(relay.ProgressStatus)) error
}

// Wallet is the connected account: identity, balance, signing
type Wallet interface {
	relay.Signer
	Balance(ctx context.Context) (*big.Int, error)
}

// NoticeKind classifies user-facing notifications
type NoticeKind int

const (
	// NoticeSwapSubmitted reports a successfully submitted bridge
	NoticeSwapSubmitted NoticeKind = iota
	// NoticeSwapFailed reports a failed execution
	NoticeSwapFailed
)

// Notice is a user-facing notification. Quote failures never produce one.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Snapshot is an immutable view of the session for display
type Snapshot struct {
	State   State
	Amount  string
	Quote   *relay.Quote
	Receive string
	Fee     string
}

// Session owns the interactive bridging state: the entered amount, the
// fetched quote, and the current flow state. Amount edits are debounced
// into at most one quote request per settled value, and responses that were
// superseded while in flight are discarded by generation.
type Session struct {
	mu sync.Mutex

	quotes QuoteService
	wallet Wallet
	logger *zap.Logger

	route        Route
	debounce     time.Duration
	quoteTimeout time.Duration
	reserve      decimal.Decimal

	state      State
	amount     string
	quote      *relay.Quote
	generation uint64
	timer      *time.Timer

	onUpdate func(Snapshot)
	notify   func(Notice)
}

// Option is a configuration option for a Session.
type Option func(*Session)

// WithWallet attaches the connected wallet
func WithWallet(wallet Wallet) Option {
	return func(s *Session) {
		s.wallet = wallet
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRoute overrides the bridged pair
func WithRoute(route Route) Option {
	return func(s *Session) {
		s.route = route
	}
}

// WithDebounce overrides the input settling delay
func WithDebounce(debounce time.Duration) Option {
	return func(s *Session) {
		s.debounce = debounce
	}
}

// WithQuoteTimeout bounds each quote request
func WithQuoteTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.quoteTimeout = timeout
	}
}

// WithOnUpdate registers a display callback invoked on every state change.
// The callback must not call back into the session.
func WithOnUpdate(onUpdate func(Snapshot)) Option {
	return func(s *Session) {
		s.onUpdate = onUpdate
	}
}

// WithNotifier registers the user-facing notification callback
func WithNotifier(notify func(Notice)) Option {
	return func(s *Session) {
		s.notify = notify
	}
}

// NewSession creates an idle bridging session
func NewSession(quotes QuoteService, options ...Option) *Session {
	session := &Session{
		quotes:       quotes,
		logger:       zap.NewNop(),
		route:        DefaultRoute,
		debounce:     DefaultDebounce,
		quoteTimeout: 30 * time.Second,
		reserve:      DefaultReserve,
		state:        StateIdle,
	}
	for _, option := range options {
		option(session)
	}
	return session
}

// SetAmount feeds a new value of the amount field into the session. Invalid
// or zero input clears any held quote immediately; valid input arms the
// debounce timer, superseding any previously armed fetch.
func (s *Session) SetAmount(text string) {
	s.mu.Lock()

	if s.state == StateSwapping {
		s.mu.Unlock()
		s.logger.Debug("amount edit ignored during swap", zap.String("amount", text))
		return
	}

	s.amount = text
	s.generation++
	s.stopTimerLocked()

	amount, ok := ParseAmount(text)
	if !ok || amount.IsZero() {
		s.quote = nil
		s.state = StateIdle
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snapshot)
		return
	}

	// The old quote no longer matches the entered amount
	s.quote = nil
	s.state = StateIdle
	s.armTimerLocked(amount)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)
}

// SetWallet swaps the connected account. A pending or held quote was priced
// for the previous account, so the fetch cycle restarts.
func (s *Session) SetWallet(wallet Wallet) {
	s.mu.Lock()

	if s.state == StateSwapping {
		s.mu.Unlock()
		s.logger.Debug("wallet change ignored during swap")
		return
	}

	s.wallet = wallet
	s.generation++
	s.stopTimerLocked()
	s.quote = nil

	if amount, ok := ParseAmount(s.amount); ok && !amount.IsZero() {
		s.armTimerLocked(amount)
	}
	s.state = StateIdle
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)
}

// armTimerLocked schedules a quote fetch for after the debounce delay
func (s *Session) armTimerLocked(amount decimal.Decimal) {
	generation := s.generation
	baseUnits := ToBaseUnits(amount, s.route.Decimals)
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fetchQuote(generation, baseUnits)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fetchQuote runs on the debounce timer's goroutine. The captured
// generation ties the response to the amount it was issued for; if the
// session has moved on by completion time, the response is dropped.
func (s *Session) fetchQuote(generation uint64, baseUnits string) {
	s.mu.Lock()
	if generation != s.generation || s.state == StateSwapping {
		s.mu.Unlock()
		return
	}

	account := relay.ZeroAddress
	if s.wallet != nil {
		account = s.wallet.Address()
	}
	req := &relay.QuoteRequest{
		User:                account,
		Recipient:           account,
		OriginChainID:       s.route.OriginChainID,
		DestinationChainID:  s.route.DestinationChainID,
		OriginCurrency:      s.route.Currency,
		DestinationCurrency: s.route.Currency,
		Amount:              baseUnits,
		TradeType:           relay.TradeTypeExactInput,
	}

	s.state = StateQuoting
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)

	ctx, cancel := context.WithTimeout(context.Background(), s.quoteTimeout)
	defer cancel()
	quote, err := s.quotes.Quote(ctx, req)

	s.mu.Lock()
	if generation != s.generation {
		// Superseded while in flight
		s.mu.Unlock()
		return
	}

	if err != nil {
		// Quote failures are a silent return to idle, not a user-facing error
		s.logger.Warn("quote fetch failed",
			zap.String("amount", baseUnits),
			zap.Error(err))
		s.quote = nil
		s.state = StateIdle
	} else {
		s.quote = quote
		s.state = StateQuoteReady
	}
	snapshot = s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)
}

// Swap executes the held quote through the connected wallet. Without a
// quote or a signer it is a defensive no-op. Success clears the amount and
// quote; failure keeps the quote and returns the session to quote-ready.
func (s *Session) Swap(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateQuoteReady || s.quote == nil || s.wallet == nil {
		s.mu.Unlock()
		return ErrNotReady
	}
	quote := s.quote
	signer := s.wallet
	s.state = StateSwapping
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)

	err := s.quotes.Execute(ctx, quote, signer, func(status relay.ProgressStatus) {
		s.logger.Info("swap progress",
			zap.String("step", status.Step),
			zap.String("status", status.Status),
			zap.String("tx_hash", status.TxHash))
	})

	s.mu.Lock()
	if err != nil {
		s.logger.Error("swap failed", zap.Error(err))
		s.state = StateQuoteReady
		snapshot = s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snapshot)
		s.send(Notice{Kind: NoticeSwapFailed, Message: "Transaction failed"})
		return err
	}

	s.amount = ""
	s.quote = nil
	s.generation++
	s.state = StateIdle
	snapshot = s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snapshot)
	s.send(Notice{Kind: NoticeSwapSubmitted, Message: "Bridge transaction sent"})
	return nil
}

// UseMax fills the amount field with the spendable balance: everything
// minus a small reserve for the origin chain's own fee, clamped at zero.
func (s *Session) UseMax(ctx context.Context) (string, error) {
	s.mu.Lock()
	wallet := s.wallet
	reserve := s.reserve
	decimals := s.route.Decimals
	s.mu.Unlock()

	if wallet == nil {
		return "", ErrNotReady
	}
	balance, err := wallet.Balance(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read balance: %w", err)
	}

	amount := MaxSpendable(balance, decimals, reserve)
	s.SetAmount(amount)
	return amount, nil
}

// Snapshot returns the current display state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancels any pending quote fetch
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.stopTimerLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:   s.state,
		Amount:  s.amount,
		Quote:   s.quote,
		Receive: ReceiveDisplay(s.quote, s.route.Decimals),
		Fee:     relay.FeeDisplay(s.quote),
	}
}

func (s *Session) emit(snapshot Snapshot) {
	if s.onUpdate != nil {
		s.onUpdate(snapshot)
	}
}

func (s *Session) send(notice Notice) {
	if s.notify != nil {
		s.notify(notice)
	}
}
