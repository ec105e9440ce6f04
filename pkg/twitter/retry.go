package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/sethvargo/go-retry"
)

// attemptError is the classified outcome of one failed request.
type attemptError struct {
	status int // 0 for transport failures
	detail string
	err    error
}

func (e *attemptError) Error() string {
	return e.err.Error()
}

func (e *attemptError) Unwrap() error {
	return e.err
}

func (e *attemptError) retryable() bool {
	return e.status == 0 || e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

// classify turns a go-twitter error into an attemptError. Failures that
// happened after a response was accepted (decoding) are returned untouched
// so they are never retried.
func classify(err error) error {
	var errResp *gotwitter.ErrorResponse
	if errors.As(err, &errResp) {
		detail := errResp.Detail
		if detail == "" {
			detail = errResp.Title
		}
		return &attemptError{status: errResp.StatusCode, detail: detail, err: err}
	}

	var httpErr *gotwitter.HTTPError
	if errors.As(err, &httpErr) {
		return &attemptError{status: httpErr.StatusCode, err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &attemptError{err: err}
	}
	return err
}

// linearBackoff waits base*n before attempt n+1.
func linearBackoff(base time.Duration) retry.Backoff {
	var n time.Duration
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return base * n, false
	})
}

// do runs fn under the retry policy: up to maxRetries attempts, retrying on
// 429, 5xx and transport errors with linear backoff. Any other failure is
// returned at once as a *StatusError.
func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(c.maxRetries-1), linearBackoff(c.retryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		classified := classify(err)
		var aerr *attemptError
		if !errors.As(classified, &aerr) {
			return classified
		}
		if !aerr.retryable() {
			return &StatusError{StatusCode: aerr.status, Detail: aerr.detail, Err: aerr.err}
		}

		c.logger.Warn("Request failed, will retry",
			"op", op, "attempt", attempts, "max_attempts", c.maxRetries, "status", aerr.status, "error", aerr.err)
		return retry.RetryableError(aerr)
	})
	if err == nil {
		if attempts > 1 {
			c.logger.Info("Request succeeded after retry", "op", op, "attempts", attempts)
		}
		return nil
	}

	var aerr *attemptError
	if !errors.As(err, &aerr) {
		return err
	}

	c.logger.Error("Retries exhausted", "op", op, "attempts", attempts, "status", aerr.status)
	switch {
	case aerr.status == http.StatusTooManyRequests:
		return &RateLimitedError{Attempts: attempts}
	case aerr.status == 0:
		return &RequestError{Err: aerr.err}
	case aerr.status >= http.StatusInternalServerError:
		return &RequestError{Status: aerr.status, Err: aerr.err}
	default:
		return ErrMaxRetries
	}
}
