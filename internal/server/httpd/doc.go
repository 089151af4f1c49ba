// Package httpd serves rawhttpd over raw TCP connections.
//
// The Server owns the listener and one goroutine per accepted connection.
// Each connection carries exactly one request: the Dispatcher parses it with
// internal/protocol/http1, resolves the sessionId cookie against the
// session store, picks a surface (user API, metrics, static files), runs the
// bound Handler and finalizes the response headers. The connection is closed
// after the response is written.
//
// Surfaces:
//
//   - /users...   routed by internal/core/route to the user API handlers
//   - /metrics    Prometheus text exposition (when enabled)
//   - everything  else is served from the static root
package httpd
