package bridge_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relay-bridge/pkg/bridge"
	"relay-bridge/pkg/relay"
)

// fakeQuoteService records requests and answers them via quoteFn
type fakeQuoteService struct {
	mu         sync.Mutex
	requests   []*relay.QuoteRequest
	executed   []*relay.Quote
	quoteFn    func(req *relay.QuoteRequest) (*relay.Quote, error)
	executeErr error
}

// quoteFor tags the quote with the requested amount so tests can tell
// responses apart.
func quoteFor(amount string) *relay.Quote {
	return &relay.Quote{
		Steps: []relay.Step{{ID: "deposit", RequestID: "0xreq", Items: []relay.StepItem{
			{Data: relay.TxData{To: "0x2222222222222222222222222222222222222222", Value: amount}},
		}}},
		Details: &relay.QuoteDetails{
			Rate:        amount,
			CurrencyOut: &relay.CurrencyAmount{Amount: amount},
		},
	}
}

func (f *fakeQuoteService) Quote(ctx context.Context, req *relay.QuoteRequest) (*relay.Quote, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.quoteFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return quoteFor(req.Amount), nil
}

func (f *fakeQuoteService) Execute(ctx context.Context, quote *relay.Quote, signer relay.Signer, onProgress func(relay.ProgressStatus)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.executeErr != nil {
		return f.executeErr
	}
	f.executed = append(f.executed, quote)
	if onProgress != nil {
		onProgress(relay.ProgressStatus{Step: "deposit", TxHash: "0xhash", Status: relay.StatusPending})
	}
	return nil
}

func (f *fakeQuoteService) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeQuoteService) request(i int) *relay.QuoteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// fakeWallet is a connected account with a fixed balance
type fakeWallet struct {
	address string
	balance *big.Int
}

func (f *fakeWallet) Address() string {
	return f.address
}

func (f *fakeWallet) Balance(ctx context.Context) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeWallet) SendTransaction(ctx context.Context, tx relay.TxData) (string, error) {
	return "0xhash", nil
}

func newTestWallet() *fakeWallet {
	oneEth, _ := new(big.Int).SetString("1000000000000000000", 10)
	return &fakeWallet{
		address: "0x1111111111111111111111111111111111111111",
		balance: oneEth,
	}
}

func newTestSession(t *testing.T, service bridge.QuoteService, options ...bridge.Option) (*bridge.Session, chan bridge.Snapshot) {
	t.Helper()
	updates := make(chan bridge.Snapshot, 64)
	options = append(options,
		bridge.WithDebounce(5*time.Millisecond),
		bridge.WithOnUpdate(func(snapshot bridge.Snapshot) {
			updates <- snapshot
		}),
	)
	session := bridge.NewSession(service, options...)
	t.Cleanup(session.Close)
	return session, updates
}

func waitForState(t *testing.T, updates chan bridge.Snapshot, want bridge.State) bridge.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-updates:
			if snapshot.State == want {
				return snapshot
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestInvalidAmountSuppressesQuoting(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, _ := newTestSession(t, service)

	for _, input := range []string{"", "abc", "0", "-1", "0.0"} {
		session.SetAmount(input)
		snapshot := session.Snapshot()
		require.Equalf(t, bridge.StateIdle, snapshot.State, "input %q", input)
		require.Nilf(t, snapshot.Quote, "input %q", input)
	}

	// Well past the debounce window: still no request issued.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, service.requestCount())
}

func TestInvalidAmountClearsHeldQuote(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	// The clear is synchronous, not debounced.
	session.SetAmount("abc")
	snapshot := session.Snapshot()
	require.Equal(t, bridge.StateIdle, snapshot.State)
	require.Nil(t, snapshot.Quote)
}

func TestDebounceCollapsesRapidEdits(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service)

	session.SetAmount("1")
	session.SetAmount("2")
	session.SetAmount("3")

	snapshot := waitForState(t, updates, bridge.StateQuoteReady)

	require.Equal(t, 1, service.requestCount())
	require.Equal(t, "3000000000000000000", service.request(0).Amount)
	require.Equal(t, relay.TradeTypeExactInput, service.request(0).TradeType)
	require.Equal(t, "3000000000000000000", snapshot.Quote.Details.Rate)
}

func TestZeroAddressPlaceholderWithoutWallet(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	require.Equal(t, relay.ZeroAddress, service.request(0).User)
	require.Equal(t, relay.ZeroAddress, service.request(0).Recipient)
}

func TestStaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	releaseFirst := make(chan struct{})
	service := &fakeQuoteService{}
	service.quoteFn = func(req *relay.QuoteRequest) (*relay.Quote, error) {
		if req.Amount == "1000000000000000000" {
			<-releaseFirst
		}
		return quoteFor(req.Amount), nil
	}

	session, updates := newTestSession(t, service)

	session.SetAmount("1")
	// Wait for the first request to be in flight before superseding it.
	waitFor(t, func() bool { return service.requestCount() == 1 })

	session.SetAmount("2")
	snapshot := waitForState(t, updates, bridge.StateQuoteReady)
	require.Equal(t, "2000000000000000000", snapshot.Quote.Details.Rate)

	// Let the stale response land; it must not overwrite the newer quote.
	close(releaseFirst)
	time.Sleep(20 * time.Millisecond)

	snapshot = session.Snapshot()
	require.Equal(t, bridge.StateQuoteReady, snapshot.State)
	require.Equal(t, "2000000000000000000", snapshot.Quote.Details.Rate)
}

func TestQuoteFailureIsSilentReturnToIdle(t *testing.T) {
	t.Parallel()

	notices := make(chan bridge.Notice, 4)
	service := &fakeQuoteService{}
	service.quoteFn = func(req *relay.QuoteRequest) (*relay.Quote, error) {
		return nil, fmt.Errorf("service unavailable")
	}

	session, updates := newTestSession(t, service, bridge.WithNotifier(func(notice bridge.Notice) {
		notices <- notice
	}))

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoting)
	snapshot := waitForState(t, updates, bridge.StateIdle)

	require.Nil(t, snapshot.Quote)
	require.Equal(t, relay.FeeUnavailable, snapshot.Fee)
	// No user-facing notification for quote failures.
	require.Empty(t, notices)
}

func TestSwapWithoutSignerIsNoOp(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	err := session.Swap(t.Context())
	require.ErrorIs(t, err, bridge.ErrNotReady)

	// The submitting state was never entered and the quote is untouched.
	snapshot := session.Snapshot()
	require.Equal(t, bridge.StateQuoteReady, snapshot.State)
	require.NotNil(t, snapshot.Quote)
	require.Empty(t, service.executed)
}

func TestSwapWithoutQuoteIsNoOp(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, _ := newTestSession(t, service, bridge.WithWallet(newTestWallet()))

	err := session.Swap(t.Context())
	require.ErrorIs(t, err, bridge.ErrNotReady)
	require.Equal(t, bridge.StateIdle, session.Snapshot().State)
}

func TestSwapSuccessResetsSession(t *testing.T) {
	t.Parallel()

	notices := make(chan bridge.Notice, 4)
	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service,
		bridge.WithWallet(newTestWallet()),
		bridge.WithNotifier(func(notice bridge.Notice) {
			notices <- notice
		}),
	)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	require.NoError(t, session.Swap(t.Context()))

	snapshot := session.Snapshot()
	require.Equal(t, bridge.StateIdle, snapshot.State)
	require.Empty(t, snapshot.Amount)
	require.Nil(t, snapshot.Quote)
	require.Len(t, service.executed, 1)

	notice := <-notices
	require.Equal(t, bridge.NoticeSwapSubmitted, notice.Kind)
}

func TestSwapFailureNotifiesAndKeepsQuote(t *testing.T) {
	t.Parallel()

	notices := make(chan bridge.Notice, 4)
	service := &fakeQuoteService{executeErr: fmt.Errorf("execution reverted")}
	session, updates := newTestSession(t, service,
		bridge.WithWallet(newTestWallet()),
		bridge.WithNotifier(func(notice bridge.Notice) {
			notices <- notice
		}),
	)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	err := session.Swap(t.Context())
	require.Error(t, err)

	// Back to a consistent retryable state: flag cleared, quote retained.
	snapshot := session.Snapshot()
	require.Equal(t, bridge.StateQuoteReady, snapshot.State)
	require.NotNil(t, snapshot.Quote)

	notice := <-notices
	require.Equal(t, bridge.NoticeSwapFailed, notice.Kind)
}

func TestUseMaxSetsSpendableBalance(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service, bridge.WithWallet(newTestWallet()))

	amount, err := session.UseMax(t.Context())
	require.NoError(t, err)
	require.Equal(t, "0.999900", amount)

	waitForState(t, updates, bridge.StateQuoteReady)
	require.Equal(t, "999900000000000000", service.request(0).Amount)
}

func TestUseMaxClampsToZero(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet()
	wallet.balance, _ = new(big.Int).SetString("50000000000000", 10) // below the reserve

	service := &fakeQuoteService{}
	session, _ := newTestSession(t, service, bridge.WithWallet(wallet))

	amount, err := session.UseMax(t.Context())
	require.NoError(t, err)
	require.Equal(t, "0.000000", amount)

	// A zero amount is idle input: no quote request.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, service.requestCount())
	require.Equal(t, bridge.StateIdle, session.Snapshot().State)
}

func TestUseMaxWithoutWallet(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t, &fakeQuoteService{})

	_, err := session.UseMax(t.Context())
	require.ErrorIs(t, err, bridge.ErrNotReady)
}

func TestConnectedWalletUsedForQuoting(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	wallet := newTestWallet()
	session, updates := newTestSession(t, service, bridge.WithWallet(wallet))

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)

	require.Equal(t, wallet.address, service.request(0).User)
	require.Equal(t, wallet.address, service.request(0).Recipient)
}

func TestSetWalletRestartsQuoteCycle(t *testing.T) {
	t.Parallel()

	service := &fakeQuoteService{}
	session, updates := newTestSession(t, service)

	session.SetAmount("0.5")
	waitForState(t, updates, bridge.StateQuoteReady)
	require.Equal(t, 1, service.requestCount())

	wallet := newTestWallet()
	session.SetWallet(wallet)

	// The held quote was priced for the zero address and is dropped.
	require.Nil(t, session.Snapshot().Quote)

	waitForState(t, updates, bridge.StateQuoteReady)
	require.Equal(t, 2, service.requestCount())
	require.Equal(t, wallet.address, service.request(1).User)
}
