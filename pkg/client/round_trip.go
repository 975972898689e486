package client

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"moul.io/http2curl"

	"marketplace/pkg/logger"
)

// CurlRoundTripper logs every request as a curl command, together with the response, at debug level.
func CurlRoundTripper(next http.RoundTripper) *CustomTransporter {
	if next == nil {
		next = StdTransport
	}
	return &CustomTransporter{RoundTripper: next}
}

type CustomTransporter struct {
	RoundTripper http.RoundTripper
}

func (c *CustomTransporter) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.From(req.Context())
	if !log.Core().Enabled(zap.DebugLevel) {
		return c.RoundTripper.RoundTrip(req)
	}
	curl, err := http2curl.GetCurlCommand(req)
	if err != nil {
		return nil, err
	}
	content := &TransportContent{Request: curl.String()}
	start := time.Now()
	defer func() {
		log.Debug("call request end",
			zap.Int64("cost_ms", time.Since(start).Milliseconds()),
			zap.String("content", FormatContent(content)))
	}()
	resp, err := c.RoundTripper.RoundTrip(req)
	if err != nil {
		content.Status = err.Error()
		return nil, err
	}
	content.Status = resp.Status
	if resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	content.Response = string(body)
	// Reset resp.Body so it can be used again
	resp.Body = io.NopCloser(bytes.NewBuffer(body))
	return resp, nil
}
