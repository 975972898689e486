package client

import (
	"net"
	"net/http"
	"time"
)

var StdTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          300,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	MaxConnsPerHost:       500,
	MaxIdleConnsPerHost:   100,
}

// New returns an http.Client with curl logging and the given timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: CurlRoundTripper(StdTransport),
		Timeout:   timeout,
	}
}
