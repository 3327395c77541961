package relay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNothingToExecute is returned when a quote carries no executable steps.
var ErrNothingToExecute = errors.New("quote has no executable steps")

// Signer submits transactions on behalf of the connected account
type Signer interface {
	Address() string
	SendTransaction(ctx context.Context, tx TxData) (string, error)
}

// ProgressStatus is an incremental execution update delivered to the
// onProgress callback. Callers only need to observe it, not branch on it.
type ProgressStatus struct {
	Step        string
	Description string
	TxHash      string
	Status      string
}

// Execute submits a previously fetched quote through the signer and waits
// for the route to reach a terminal state. Each step transaction is sent in
// order; afterwards the execution status is polled until the API reports
// success, failure, or refund.
func (c *Client) Execute(ctx context.Context, quote *Quote, signer Signer, onProgress func(ProgressStatus)) error {
	if quote == nil || signer == nil {
		return fmt.Errorf("execute requires a quote and a signer")
	}
	if onProgress == nil {
		onProgress = func(ProgressStatus) {}
	}
	if len(quote.Steps) == 0 {
		return ErrNothingToExecute
	}

	for _, step := range quote.Steps {
		for _, item := range step.Items {
			if item.Status == "complete" {
				continue
			}

			txHash, err := signer.SendTransaction(ctx, item.Data)
			if err != nil {
				return fmt.Errorf("step %s failed: %w", step.ID, err)
			}

			onProgress(ProgressStatus{
				Step:        step.ID,
				Description: step.Description,
				TxHash:      txHash,
				Status:      StatusPending,
			})
		}
	}

	requestID := quote.RequestID()
	if requestID == "" {
		// Nothing to poll; the deposit transactions are all there is.
		return nil
	}

	return c.waitForCompletion(ctx, requestID, onProgress)
}

// waitForCompletion polls the execution status until a terminal state
func (c *Client) waitForCompletion(ctx context.Context, requestID string, onProgress func(ProgressStatus)) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempts := 0; attempts < c.maxPolls; attempts++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := c.ExecutionStatus(ctx, requestID)
		if err != nil {
			// Transient status failures are retried on the next tick
			continue
		}

		onProgress(ProgressStatus{
			Step:        "relay",
			Description: status.Details,
			Status:      status.Status,
		})

		if !status.Terminal() {
			continue
		}
		if status.Status == StatusSuccess {
			return nil
		}
		return fmt.Errorf("execution ended with status %s: %s", status.Status, status.Details)
	}

	return fmt.Errorf("timed out waiting for execution of request %s", requestID)
}
