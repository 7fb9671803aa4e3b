package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moneysplitter/backend/internal/errs"
)

// ContentPinner pins a JSON document to content-addressed storage and
// returns its content hash.
type ContentPinner interface {
	PinJSON(ctx context.Context, document any) (string, error)
}

// PinningClient talks to a Pinata-style pinning API.
type PinningClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

var _ ContentPinner = (*PinningClient)(nil)

// NewPinningClient creates a client for the pinning service at baseURL
// (e.g. "https://api.pinata.cloud"), authenticated with a bearer key.
func NewPinningClient(baseURL, apiKey string, timeout time.Duration) *PinningClient {
	return &PinningClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// PinJSON pins the document and returns the resulting content hash (CID).
func (c *PinningClient) PinJSON(ctx context.Context, document any) (string, error) {
	body, err := json.Marshal(document)
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, err, "failed to encode document for pinning")
	}

	ctx, cancel := callCtx(ctx, c.timeout)
	defer cancel()

	var result struct {
		IpfsHash string `json:"IpfsHash"`
	}
	err = retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("pinning service returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return permanent(fmt.Errorf("pinning service returned %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return "", errs.AdapterUnavailable(err, "failed to pin document")
	}
	if result.IpfsHash == "" {
		return "", errs.AdapterUnavailable(nil, "pinning service returned an empty content hash")
	}

	return result.IpfsHash, nil
}
