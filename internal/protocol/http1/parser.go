package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Parser limits.
const (
	// MaxHeaderBytes caps the request line plus header block.
	MaxHeaderBytes = 64 << 10
	// MaxBodySize caps the declared Content-Length.
	MaxBodySize = 10 << 20
)

var (
	pathPattern    = regexp.MustCompile(`^(/[-a-zA-Z0-9._~%!$&'()*+,;=:@/]*)?$`)
	versionPattern = regexp.MustCompile(`^HTTP/\d+\.\d+$`)
)

// Methods accepted on the request line.
var allowedMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"HEAD":    {},
	"OPTIONS": {},
	"CONNECT": {},
	"TRACE":   {},
}

// IsAllowedMethod reports whether m is in the accepted method set.
func IsAllowedMethod(m string) bool {
	_, ok := allowedMethods[m]
	return ok
}

// ReadRequest reads and parses exactly one request from r.
//
// Exactly one request is consumed: the header block up to and including the
// first CRLFCRLF, then Content-Length body bytes. Format violations return a
// *ParseError; other read failures are returned wrapped.
func ReadRequest(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	block, err := readHeaderBlock(br)
	if err != nil {
		return nil, err
	}

	req, err := parseHeaderBlock(block)
	if err != nil {
		return nil, err
	}

	body, err := readBody(br, req)
	if err != nil {
		return nil, err
	}
	req.Body = body
	return req, nil
}

// readHeaderBlock consumes bytes until the CRLFCRLF terminator or end of
// stream. The terminator is tracked with a four-state counter:
// 0 none, 1 "\r", 2 "\r\n", 3 "\r\n\r", 4 done.
func readHeaderBlock(br *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	state := 0
	for state < 4 {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, fmt.Errorf("read header block: %w", err)
		}
		if buf.Len() >= MaxHeaderBytes {
			return nil, newParseError(KindHeaderTooLarge, "header block exceeds %d bytes", MaxHeaderBytes)
		}
		buf.WriteByte(c)

		switch c {
		case '\r':
			if state == 0 || state == 2 {
				state++
			} else {
				state = 1
			}
		case '\n':
			if state == 1 || state == 3 {
				state++
			} else {
				state = 0
			}
		default:
			state = 0
		}
	}
	return buf.Bytes(), nil
}

func parseHeaderBlock(block []byte) (*Request, error) {
	lines := splitLines(string(block))
	if len(lines) == 0 || lines[0] == "" {
		return nil, newParseError(KindEmptyRequestLine, "empty request line")
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	req.Headers = make(map[string]string)
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		req.Headers[key] = strings.TrimSpace(value)
	}
	if len(req.Headers) == 0 {
		return nil, newParseError(KindNoHeaders, "no headers found in the request")
	}
	return req, nil
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return nil, newParseError(KindMalformedRequestLine, "invalid request line: want method, path and version, got %d tokens", len(parts))
	}
	method, path, version := parts[0], parts[1], parts[2]

	if !IsAllowedMethod(method) {
		return nil, newParseError(KindInvalidMethod, "invalid HTTP method: %q", method)
	}
	if path == "" || !pathPattern.MatchString(path) {
		return nil, newParseError(KindInvalidPath, "invalid path: %q", path)
	}
	if !versionPattern.MatchString(version) {
		return nil, newParseError(KindInvalidVersion, "invalid HTTP version: %q", version)
	}
	return &Request{Method: method, Path: path, Version: version}, nil
}

// splitLines splits on "\n", "\r\n" or a lone "\r".
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}

func readBody(br *bufio.Reader, req *Request) ([]byte, error) {
	raw, ok := req.Header(HeaderContentLength)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, newParseError(KindInvalidContentLength, "invalid Content-Length: %q", raw)
	}
	switch {
	case n < 0:
		return nil, newParseError(KindNegativeContentLength, "negative Content-Length: %d", n)
	case n > MaxBodySize:
		return nil, newParseError(KindContentLengthTooLarge, "Content-Length too large: %d", n)
	case n == 0:
		return []byte{}, nil
	}

	body := make([]byte, n)
	read, err := io.ReadFull(br, body)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newParseError(KindTruncatedBody, "unexpected end of stream while reading body: got %d of %d bytes", read, n)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
