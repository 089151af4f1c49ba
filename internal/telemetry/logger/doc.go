// Package logger provides structured logging for rawhttpd.
//
// It builds a *slog.Logger from configuration:
//
//   - logger.go: handler selection (JSON or text) and the dynamic level
//   - context.go: request id propagation through context.Context
//   - redact.go: masking of passwords, cookies and session tokens
//
// Components receive a *slog.Logger and log with the *Context methods so the
// request id of the current connection is attached automatically.
package logger
