package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
)

// WithRetry runs fn with bounded retries and backoff. It is a deliberate
// opt-in for adapters whose endpoints flake under load; Fetch itself never
// retries beyond the single challenge fallback. The delay grows per
// attempt and only the last error surfaces.
func WithRetry(ctx context.Context, attempts uint, delay time.Duration, fn func() error) error {
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// FetchJSONWithRetry is FetchJSON wrapped in the configured retry policy
// (retry_attempts / retry_delay_ms from the fetch settings). A 404 is
// terminal: absence does not flake, so it short-circuits the remaining
// attempts.
func (c *Client) FetchJSONWithRetry(ctx context.Context, rawURL string, opt Options, dest any) error {
	return WithRetry(ctx, c.retryAttempts, c.retryDelay, func() error {
		err := c.FetchJSON(ctx, rawURL, opt, dest)
		if errors.Is(err, ErrNotFound) {
			return retry.Unrecoverable(err)
		}
		return err
	})
}
