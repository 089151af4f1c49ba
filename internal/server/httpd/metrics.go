package httpd

import (
	"bytes"
	"context"
	"io"

	"github.com/yndnr/rawhttpd/internal/protocol/http1"
	"github.com/yndnr/rawhttpd/internal/telemetry/metric"
)

// MetricsWriter renders metrics in the Prometheus text format.
type MetricsWriter interface {
	WriteText(w io.Writer) error
}

// MetricsHandler serves the text exposition of m.
func MetricsHandler(m MetricsWriter) Handler {
	return HandlerFunc(func(_ context.Context, _ *http1.Request, _ Session) (*http1.Response, error) {
		var buf bytes.Buffer
		if err := m.WriteText(&buf); err != nil {
			return nil, err
		}
		return http1.NewResponse().
			Header(http1.HeaderContentType, metric.ContentType).
			Body(buf.Bytes()).
			Build(), nil
	})
}
