package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/circuit"
)

// HTTPTreasurer pushes funds through the external treasury service. A
// circuit breaker fast-fails pushes while the treasury is down; callers
// already treat a failed push as "credit the balance ledger instead", so an
// open breaker just routes funds to escrow without waiting on timeouts.
type HTTPTreasurer struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPTreasurer(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPTreasurer {
	return &HTTPTreasurer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("treasury", circuit.WithFailureThreshold(5), circuit.WithOpenTimeout(30*time.Second)),
		logger:  logger,
	}
}

type pushRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (t *HTTPTreasurer) Push(ctx context.Context, to id.Address, amount id.Amount) error {
	if !t.breaker.Allow() {
		return fmt.Errorf("treasury circuit open, push to %s rejected", to)
	}

	if err := t.push(ctx, to, amount); err != nil {
		if _, change := t.breaker.RecordFailure(); change.Opened {
			t.logger.ErrorContext(ctx, "treasury circuit opened", "error", err.Error())
		}
		return err
	}
	if _, change := t.breaker.RecordSuccess(); change.Closed {
		t.logger.InfoContext(ctx, "treasury circuit closed")
	}
	return nil
}

func (t *HTTPTreasurer) push(ctx context.Context, to id.Address, amount id.Amount) error {
	body, err := json.Marshal(pushRequest{To: to.String(), Amount: uint64(amount)})
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to treasury: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("treasury returned %d", resp.StatusCode)
	}
	return nil
}
