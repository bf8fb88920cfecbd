package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

// HTTPClient talks to a real name-registry service over its JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type recordResponse struct {
	Owner         string `json:"owner"`
	PreviousOwner string `json:"previous_owner"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner"`
}

func (c *HTTPClient) Record(ctx context.Context, key id.NameKey) (Record, error) {
	url := fmt.Sprintf("%s/records/%s", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Record{}, fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("registry lookup: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Record{}, sentinel.ErrNotFound
	default:
		return Record{}, fmt.Errorf("registry lookup: unexpected status %d", resp.StatusCode)
	}

	var body recordResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Record{}, fmt.Errorf("decode registry response: %w", err)
	}
	owner, err := id.ParseOptionalAddress(body.Owner)
	if err != nil {
		return Record{}, fmt.Errorf("registry returned malformed owner: %w", err)
	}
	previous, err := id.ParseOptionalAddress(body.PreviousOwner)
	if err != nil {
		return Record{}, fmt.Errorf("registry returned malformed previous owner: %w", err)
	}
	return Record{Owner: owner, PreviousOwner: previous}, nil
}

func (c *HTTPClient) Transfer(ctx context.Context, key id.NameKey, newOwner id.Address) error {
	payload, err := json.Marshal(transferRequest{NewOwner: newOwner.String()})
	if err != nil {
		return fmt.Errorf("encode transfer request: %w", err)
	}
	url := fmt.Sprintf("%s/records/%s/transfer", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry transfer: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return sentinel.ErrNotFound
	case http.StatusConflict, http.StatusForbidden:
		// The registry refuses when the marketplace is not the current owner.
		return fmt.Errorf("registry transfer refused: %w", sentinel.ErrInvalidState)
	default:
		return fmt.Errorf("registry transfer: unexpected status %d", resp.StatusCode)
	}
}
