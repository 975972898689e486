package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	backoff "github.com/cenkalti/backoff/v4"
)

// OnRetryCondition is a function to determine whether to retry
func OnRetryCondition(resp *http.Response, err error) bool {
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			// the connection broke mid transfer
			return true
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return false
		default:
			var netErr net.Error
			return errors.As(err, &netErr)
		}
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
	}
	return false
}

// Do sends the request built by newRequest, retrying transport failures and
// gateway errors up to maxRetries times with exponential backoff.
// The last response is returned whatever its status.
func Do(ctx context.Context, c *http.Client, newRequest func(ctx context.Context) (*http.Request, error), maxRetries uint64) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		req, err := newRequest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.Do(req)
		if resp != nil {
			_ = resp.Body.Close()
			resp = nil
		}
		if err != nil {
			if OnRetryCondition(nil, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		// kept in case this is the final attempt
		resp = r
		if OnRetryCondition(r, nil) {
			return errRetryStatus
		}
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
	if errors.Is(err, errRetryStatus) {
		return resp, nil
	}
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}

var errRetryStatus = errors.New("retryable status")
