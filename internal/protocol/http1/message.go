package http1

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultVersion is the protocol version written on responses.
const DefaultVersion = "HTTP/1.1"

// Well-known header names.
const (
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderConnection    = "Connection"
	HeaderDate          = "Date"
	HeaderCookie        = "Cookie"
	HeaderSetCookie     = "Set-Cookie"
	HeaderRequestID     = "X-Request-ID"
)

// DateFormat is the RFC 1123 layout used for the Date header, always in GMT.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatDate renders t for the Date header.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// Content types set by rawhttpd itself.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Request is a parsed HTTP request.
//
// A Request returned by ReadRequest is owned by the caller and must be
// treated as read-only.
type Request struct {
	Method  string
	Path    string
	Version string
	// Headers is case-sensitive; duplicate keys keep the last value.
	Headers map[string]string
	Body    []byte
}

// StartLine returns "METHOD PATH VERSION".
func (r *Request) StartLine() string {
	return r.Method + " " + r.Path + " " + r.Version
}

// Header returns the value for key. An exact match wins; otherwise the
// first case-insensitive match is returned.
func (r *Request) Header(key string) (string, bool) {
	return lookupHeader(r.Headers, key)
}

// BodyString returns the body decoded as UTF-8 text.
func (r *Request) BodyString() string {
	return string(r.Body)
}

// WriteTo renders the request in wire format.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	return writeMessage(w, r.StartLine(), r.Headers, r.Body)
}

// Bytes renders the request into a new byte slice.
func (r *Request) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.Bytes()
}

// Response is an HTTP response ready to be serialized.
type Response struct {
	Version    string
	StatusCode int
	Reason     string
	Headers    map[string]string
	Body       []byte
}

// StartLine returns "VERSION CODE REASON".
func (r *Response) StartLine() string {
	return r.Version + " " + strconv.Itoa(r.StatusCode) + " " + r.Reason
}

// Header returns the value for key, see Request.Header.
func (r *Response) Header(key string) (string, bool) {
	return lookupHeader(r.Headers, key)
}

// SetHeader sets a single header, replacing any previous value.
func (r *Response) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// BodyString returns the body decoded as UTF-8 text.
func (r *Response) BodyString() string {
	return string(r.Body)
}

// WriteTo renders the response in wire format.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	return writeMessage(w, r.StartLine(), r.Headers, r.Body)
}

// Bytes renders the response into a new byte slice.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.Bytes()
}

func lookupHeader(headers map[string]string, key string) (string, bool) {
	if v, ok := headers[key]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// writeMessage writes the header block followed by the body.
func writeMessage(w io.Writer, startLine string, headers map[string]string, body []byte) (int64, error) {
	var head bytes.Buffer
	writeHeaderBlock(&head, startLine, headers)

	n, err := w.Write(head.Bytes())
	total := int64(n)
	if err != nil {
		return total, err
	}
	if len(body) == 0 {
		return total, nil
	}
	n, err = w.Write(body)
	return total + int64(n), err
}

// writeHeaderBlock renders the start line, the headers sorted by key and the
// terminating empty line.
func writeHeaderBlock(buf *bytes.Buffer, startLine string, headers map[string]string) {
	buf.Grow(len(startLine) + len(headers)*32 + 4)

	buf.WriteString(startLine)
	buf.WriteString("\r\n")

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(headers[k])
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
}
