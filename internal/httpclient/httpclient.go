// Package httpclient builds the http.Client instances used for outbound
// calls to the wiki and completion services.
package httpclient

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound call. The session model is
// single-flight, so an unbounded hang would block the whole session.
const DefaultTimeout = 30 * time.Second

// New returns an http.Client configured for outbound requests. TLS
// certificate verification stays at the transport default (enabled).
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport(),
	}
}

func transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	t := base.Clone()
	t.Proxy = http.ProxyFromEnvironment
	return t
}
