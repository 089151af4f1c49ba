package httpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/core/route"
	"github.com/yndnr/rawhttpd/internal/protocol/http1"
	"github.com/yndnr/rawhttpd/internal/storage/memory"
	"github.com/yndnr/rawhttpd/internal/telemetry/logger"
)

// SessionStore is the session store shared by the dispatcher and the user
// API handlers.
type SessionStore = memory.SessionStore[domain.UserID]

// Observer receives per-request measurements.
type Observer interface {
	ObserveRequest(surface string, code int, elapsed time.Duration)
	ObserveParseError(kind string)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, int, time.Duration) {}
func (noopObserver) ObserveParseError(string)                  {}

// Dispatcher turns one connection's bytes into one finalized response.
type Dispatcher struct {
	sessions    *SessionStore
	api         map[route.Route]Handler
	static      Handler
	metrics     Handler
	metricsPath string
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithStatic sets the handler for paths outside the API and metrics.
func WithStatic(h Handler) DispatcherOption {
	return func(d *Dispatcher) {
		d.static = h
	}
}

// WithMetricsHandler serves h for GET requests on path.
func WithMetricsHandler(path string, h Handler) DispatcherOption {
	return func(d *Dispatcher) {
		d.metricsPath = path
		d.metrics = h
	}
}

// WithObserver sets the request metrics sink.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithDispatchLogger sets the logger used when the context carries none.
func WithDispatchLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDispatchClock overrides the clock used for the Date header and
// request timing.
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithRequestIDs overrides the request id generator.
func WithRequestIDs(gen func() string) DispatcherOption {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// NewDispatcher creates a dispatcher over the given session store. API
// handlers are bound with Route.
func NewDispatcher(sessions *SessionStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		api:      make(map[route.Route]Handler),
		observer: noopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Route binds h to an API route. Binding NotFound has no effect.
func (d *Dispatcher) Route(rt route.Route, h Handler) {
	if rt == route.NotFound {
		return
	}
	d.api[rt] = h
}

// Dispatch reads one request from r and returns the finalized response.
// Parse failures produce a 400 response; only I/O errors are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, r io.Reader) (*http1.Response, error) {
	start := d.now()
	requestID := d.newID()
	ctx = logger.WithRequestID(ctx, requestID)
	log := d.loggerFrom(ctx)

	req, err := http1.ReadRequest(r)
	if err != nil {
		var perr *http1.ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		kind := perr.Kind.String()
		d.observer.ObserveParseError(kind)
		log.DebugContext(ctx, "request rejected", "kind", kind, "error", perr.Message)

		resp := errorResponse(http1.StatusBadRequest, domain.ErrBadRequest.Code, perr.Message)
		d.finalize(resp, requestID)
		d.observer.ObserveRequest(string(SurfaceParse), resp.StatusCode, d.now().Sub(start))
		return resp, nil
	}

	sess := d.resolveSession(req)
	surface, resp := d.serve(ctx, req, sess)
	d.finalize(resp, requestID)

	elapsed := d.now().Sub(start)
	d.observer.ObserveRequest(string(surface), resp.StatusCode, elapsed)

	attrs := []any{
		"method", req.Method,
		"path", req.Path,
		"surface", string(surface),
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	}
	if sess.Active {
		attrs = append(attrs, "user_id", sess.Subject)
	}
	switch {
	case resp.StatusCode >= 500:
		log.ErrorContext(ctx, "request completed with error", attrs...)
	case resp.StatusCode >= 400:
		log.InfoContext(ctx, "request completed with client error", attrs...)
	default:
		log.InfoContext(ctx, "request completed", attrs...)
	}
	return resp, nil
}

// Reject returns the finalized 400 response for a request that could not
// be read in full, such as one cut off by the read deadline.
func (d *Dispatcher) Reject(ctx context.Context, kind, message string) *http1.Response {
	start := d.now()
	requestID := d.newID()
	ctx = logger.WithRequestID(ctx, requestID)

	d.observer.ObserveParseError(kind)
	d.loggerFrom(ctx).DebugContext(ctx, "request rejected", "kind", kind, "error", message)

	resp := errorResponse(http1.StatusBadRequest, domain.ErrBadRequest.Code, message)
	d.finalize(resp, requestID)
	d.observer.ObserveRequest(string(SurfaceParse), resp.StatusCode, d.now().Sub(start))
	return resp
}

// serve selects the surface for req and runs its handler.
func (d *Dispatcher) serve(ctx context.Context, req *http1.Request, sess Session) (Surface, *http1.Response) {
	switch {
	case route.IsAPIPath(req.Path):
		rt := route.Resolve(req.Method, req.Path)
		if rt == route.NotFound {
			return SurfaceAPI, domainErrorResponse(domain.ErrPathNotFound)
		}
		if rt.RequiresSession() && !sess.Active {
			return SurfaceAPI, domainErrorResponse(domain.ErrSessionNotFound)
		}
		h, ok := d.api[rt]
		if !ok {
			return SurfaceAPI, domainErrorResponse(domain.ErrPathNotFound)
		}
		return SurfaceAPI, d.invoke(ctx, h, req, sess, jsonInternalError)

	case d.metrics != nil && req.Method == "GET" && req.Path == d.metricsPath:
		return SurfaceMetrics, d.invoke(ctx, d.metrics, req, sess, jsonInternalError)

	default:
		if d.static == nil {
			return SurfaceStatic, htmlError(http1.StatusNotFound)
		}
		return SurfaceStatic, d.invoke(ctx, d.static, req, sess, htmlInternalError)
	}
}

// invoke runs h, converting errors, nil responses and panics into the
// surface's 500 response.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, req *http1.Request, sess Session, fail func() *http1.Response) (resp *http1.Response) {
	log := d.loggerFrom(ctx)
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "handler panic",
				"panic", fmt.Sprint(p),
				"method", req.Method,
				"path", req.Path,
				"stack", string(debug.Stack()),
			)
			resp = fail()
		}
	}()

	var err error
	resp, err = h.Handle(ctx, req, sess)
	if err != nil {
		log.ErrorContext(ctx, "handler failed", "method", req.Method, "path", req.Path, "error", err)
		return fail()
	}
	if resp == nil {
		log.ErrorContext(ctx, "handler returned no response", "method", req.Method, "path", req.Path)
		return fail()
	}
	return resp
}

// resolveSession looks up the sessionId cookie. Unknown or expired tokens
// resolve to an inactive Session.
func (d *Dispatcher) resolveSession(req *http1.Request) Session {
	header, ok := req.Header(http1.HeaderCookie)
	if !ok || d.sessions == nil {
		return Session{}
	}
	token, ok := sessionToken(header)
	if !ok {
		return Session{}
	}
	s, ok := d.sessions.Lookup(token)
	if !ok {
		return Session{}
	}
	return Session{Subject: s.Subject, Token: token, Active: true}
}

// finalize sets the headers every response carries, replacing any value a
// handler may have set under a different letter case.
func (d *Dispatcher) finalize(resp *http1.Response, requestID string) {
	if resp.Version == "" {
		resp.Version = http1.DefaultVersion
	}
	if resp.Reason == "" {
		resp.Reason = http1.ReasonPhrase(resp.StatusCode)
	}
	for _, kv := range [][2]string{
		{http1.HeaderContentLength, strconv.Itoa(len(resp.Body))},
		{http1.HeaderDate, http1.FormatDate(d.now())},
		{http1.HeaderConnection, "close"},
		{http1.HeaderRequestID, requestID},
	} {
		for k := range resp.Headers {
			if k != kv[0] && strings.EqualFold(k, kv[0]) {
				delete(resp.Headers, k)
			}
		}
		resp.SetHeader(kv[0], kv[1])
	}
}

func (d *Dispatcher) loggerFrom(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, d.logger)
}
