package adapters

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moneysplitter/backend/internal/errs"
)

// LedgerClient submits a payload to the distributed ledger and returns the
// transaction reference once the submission is confirmed.
type LedgerClient interface {
	SubmitRecord(ctx context.Context, payload []byte) (string, error)
}

// LedgerRelayClient posts payloads to a relay gateway that signs and
// broadcasts the chain transaction, then waits for confirmation before
// responding. Keeping the signing key behind the relay keeps it out of
// this service.
type LedgerRelayClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

var _ LedgerClient = (*LedgerRelayClient)(nil)

// NewLedgerRelayClient creates a client for the relay gateway at baseURL.
func NewLedgerRelayClient(baseURL, apiKey string, timeout time.Duration) *LedgerRelayClient {
	return &LedgerRelayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// SubmitRecord submits the payload and blocks until the relay reports the
// mined transaction reference.
func (c *LedgerRelayClient) SubmitRecord(ctx context.Context, payload []byte) (string, error) {
	body, err := json.Marshal(map[string]string{
		"data": hex.EncodeToString(payload),
	})
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, err, "failed to encode ledger payload")
	}

	ctx, cancel := callCtx(ctx, c.timeout)
	defer cancel()

	var result struct {
		TransactionHash string `json:"transactionHash"`
	}
	err = retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/transactions", bytes.NewReader(body))
		if err != nil {
			return permanent(err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("ledger relay returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return permanent(fmt.Errorf("ledger relay returned %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return "", errs.AdapterUnavailable(err, "failed to submit ledger record")
	}
	if result.TransactionHash == "" {
		return "", errs.AdapterUnavailable(nil, "ledger relay returned an empty transaction reference")
	}

	return result.TransactionHash, nil
}
