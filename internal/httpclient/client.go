// Package httpclient provides the shared HTTP client used by all EBSI API
// calls. The transport is instrumented with otelhttp so callers that run an
// OpenTelemetry SDK get client spans for free.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every request; the confirmation poller relies on
// this as the transport-level timeout for a single receipt lookup.
const DefaultTimeout = 15 * time.Second

// New returns an instrumented HTTP client with the default timeout.
func New() *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
