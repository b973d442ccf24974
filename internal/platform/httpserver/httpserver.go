// Package httpserver builds the inbound server for the calculation API.
package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Timeouts bounds inbound connections. Zero fields keep the defaults.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// New builds the server for addr. Write must cover a whole mutation batch,
// scheme fetches included.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: orDefault(t.ReadHeader, defaultReadHeaderTimeout),
		ReadTimeout:       orDefault(t.Read, defaultReadTimeout),
		WriteTimeout:      orDefault(t.Write, defaultWriteTimeout),
		IdleTimeout:       orDefault(t.Idle, defaultIdleTimeout),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
