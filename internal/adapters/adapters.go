// Package adapters holds the narrow clients for the three external
// collaborators: the payment processor, the content-pinning service, and the
// distributed-ledger relay. The core only depends on the interfaces; the
// HTTP implementations live here so tests can substitute stubs.
//
// Every call has a bounded timeout and retries transport failures up to
// retryLimit times with exponential backoff. Definitive answers from the
// collaborator (a 4xx, a "failed" payment) are never retried.
package adapters

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const retryLimit = 3

// defaultTimeout bounds a single collaborator call when the caller's
// context carries no deadline.
const defaultTimeout = 10 * time.Second

// permanent marks an error as not worth retrying.
func permanent(err error) error {
	return backoff.Permanent(err)
}

// retry runs op with exponential backoff, bounded by retryLimit and ctx.
func retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retryLimit),
		ctx,
	)
	return backoff.Retry(op, policy)
}

// callCtx derives the per-call context with the adapter timeout applied.
func callCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
