// Package http1 implements the HTTP/1.1 wire format used by rawhttpd.
//
// It contains the request parser, the Request and Response message types,
// the chainable response builder and the serializer that renders messages
// back to wire bytes. Only the standard library is used; no net/http types
// are involved at any point.
//
// Supported subset:
//   - request line: METHOD SP PATH SP HTTP/<major>.<minor>
//   - header lines: key ":" value, last occurrence wins
//   - body framing: Content-Length only (no chunked encoding)
//
// Limits:
//   - header block: MaxHeaderBytes (64 KiB)
//   - body: MaxBodySize (10 MiB)
package http1
