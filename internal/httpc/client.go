// Package httpc provides the HTTP client used to reach the control surface
// of a running facenav.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Timeouts for calls to the local control surface.
const (
	RequestTimeout = 5 * time.Second
	DialTimeout    = 2 * time.Second
)

// Client is shared by every Control. The control surface listens on
// loopback, so proxies are bypassed.
var Client = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		Proxy:               nil,
		DialContext:         (&net.Dialer{Timeout: DialTimeout}).DialContext,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}
