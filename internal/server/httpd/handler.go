package httpd

import (
	"context"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/protocol/http1"
)

// Session is the session resolved from the request cookie. Active is false
// when the request carried no cookie or the token was unknown or expired.
type Session struct {
	Subject domain.UserID
	Token   string
	Active  bool
}

// Handler produces the response for one request. The Dispatcher finalizes
// Content-Length, Date and Connection on whatever is returned.
type Handler interface {
	Handle(ctx context.Context, req *http1.Request, sess Session) (*http1.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *http1.Request, sess Session) (*http1.Response, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req *http1.Request, sess Session) (*http1.Response, error) {
	return f(ctx, req, sess)
}

// Surface names the family of handlers a request was routed to. It is used
// as a metric label and log attribute.
type Surface string

const (
	SurfaceAPI     Surface = "api"
	SurfaceMetrics Surface = "metrics"
	SurfaceStatic  Surface = "static"
	SurfaceParse   Surface = "parse"
)
