package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
)

// PaymentStatus is the processor's view of a payment.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is the slice of the processor's payment object the core reads.
type Payment struct {
	Reference string
	Status    PaymentStatus
	Amount    decimal.Decimal
	Currency  string
	Metadata  map[string]string
}

// PaymentProvider retrieves the state of an external payment by reference.
type PaymentProvider interface {
	RetrievePayment(ctx context.Context, reference string) (*Payment, error)
}

// PaymentClient talks to a Stripe-style payment-intents API.
type PaymentClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

var _ PaymentProvider = (*PaymentClient)(nil)

// NewPaymentClient creates a client for the payment processor API at baseURL
// (e.g. "https://api.stripe.com"), authenticated with a bearer API key.
func NewPaymentClient(baseURL, apiKey string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// paymentIntent mirrors the processor's wire format. Amounts come in the
// smallest currency unit (cents).
type paymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// RetrievePayment fetches the payment with the given reference.
func (c *PaymentClient) RetrievePayment(ctx context.Context, reference string) (*Payment, error) {
	ctx, cancel := callCtx(ctx, c.timeout)
	defer cancel()

	var intent paymentIntent
	err := retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v1/payment_intents/%s", c.baseURL, reference), nil)
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return permanent(errs.PaymentNotConfirmed("payment %s not found at processor", reference))
		case resp.StatusCode >= 500:
			return fmt.Errorf("payment processor returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return permanent(fmt.Errorf("payment processor returned %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&intent)
	})
	if err != nil {
		if errs.IsKind(err, errs.KindPaymentNotConfirmed) {
			return nil, err
		}
		return nil, errs.AdapterUnavailable(err, "failed to retrieve payment %s", reference)
	}

	return &Payment{
		Reference: intent.ID,
		Status:    PaymentStatus(intent.Status),
		Amount:    decimal.New(intent.Amount, -2),
		Currency:  intent.Currency,
		Metadata:  intent.Metadata,
	}, nil
}
