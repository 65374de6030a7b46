package lookup

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// NewHTTPClient returns an HTTP client that negotiates HTTP/2 over TLS and
// pings idle HTTP/2 connections before reuse.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	txp := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
	}
	if h2, err := http2.ConfigureTransports(txp); err == nil {
		h2.ReadIdleTimeout = 30 * time.Second
		h2.PingTimeout = timeout
	}
	return &http.Client{Transport: txp, Timeout: timeout}
}
