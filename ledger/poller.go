package ledger

import (
	"context"
	"errors"
	"time"
)

// Default polling parameters, matching the observed mining latency of the
// pilot ledger.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 10
)

// ReceiptGetter fetches transaction receipts. *Client satisfies it; tests
// substitute scripted fakes.
type ReceiptGetter interface {
	GetTransactionReceipt(ctx context.Context, txHash, accessToken string) (*TransactionReceipt, error)
}

// Clock abstracts the delay between polling attempts so the poller can be
// tested without real sleeps.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poller drives a submitted transaction hash to a terminal state:
//
//	Pending -> Mined      receipt present, no revert reason
//	Pending -> Reverted   receipt present, revert reason set
//	Pending -> Exhausted  retry budget consumed while still pending
//
// A revert short-circuits the remaining budget: a reverted transaction can
// never transition to mined.
type Poller struct {
	Receipts    ReceiptGetter
	Interval    time.Duration
	MaxAttempts int
	Clock       Clock
}

// NewPoller creates a poller with the default interval and budget.
func NewPoller(receipts ReceiptGetter) *Poller {
	return &Poller{
		Receipts:    receipts,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
		Clock:       realClock{},
	}
}

// Wait polls until the transaction reaches a terminal state. It returns the
// receipt on Mined, a *RevertedTransactionError on Reverted, and a
// *ExhaustedRetryError once the budget is consumed while still pending.
func (p *Poller) Wait(ctx context.Context, txHash, accessToken string) (*TransactionReceipt, error) {
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := p.Clock.Sleep(ctx, p.Interval); err != nil {
			return nil, err
		}
		receipt, err := p.Receipts.GetTransactionReceipt(ctx, txHash, accessToken)
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, ErrNotYetMined) {
			continue
		}
		// Reverted transactions and transport failures are not retried.
		return nil, err
	}
	return nil, &ExhaustedRetryError{TransactionHash: txHash, Attempts: p.MaxAttempts}
}
