package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Pipeline calls can take a
// while against the model backend, so the write timeout is the generous one.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Batch requests run OCR plus model calls per file, so the write
		// deadline stays generous.
		WriteTimeout: 5 * time.Minute,
	}
}
