package http1

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
)

// ============================================================
// ReadRequest Tests - Accepted Requests
// ============================================================

func TestReadRequest_Valid(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMethod  string
		wantPath    string
		wantVersion string
		wantHeaders map[string]string
		wantBody    string
	}{
		{
			name:        "simple GET",
			input:       "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Host": "localhost"},
		},
		{
			name:        "POST with body",
			input:       "POST /users HTTP/1.1\r\nContent-Length: 5\r\nHost: a\r\n\r\nhello",
			wantMethod:  "POST",
			wantPath:    "/users",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Content-Length": "5", "Host": "a"},
			wantBody:    "hello",
		},
		{
			name:        "header whitespace trimmed and colon in value kept",
			input:       "GET /x HTTP/1.0\r\n  Host :  example.com:8080  \r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/x",
			wantVersion: "HTTP/1.0",
			wantHeaders: map[string]string{"Host": "example.com:8080"},
		},
		{
			name:        "duplicate header last wins",
			input:       "GET / HTTP/1.1\r\nX-A: 1\r\nX-A: 2\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"X-A": "2"},
		},
		{
			name:        "lines without colon and empty keys skipped",
			input:       "GET / HTTP/1.1\r\ngarbage\r\n: nokey\r\nHost: h\r\n\r\n",
			wantMethod:  "GET",
			wantPath:    "/",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Host": "h"},
		},
		{
			name:        "zero content length",
			input:       "POST /users HTTP/1.1\r\nContent-Length: 0\r\n\r\n",
			wantMethod:  "POST",
			wantPath:    "/users",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Content-Length": "0"},
		},
		{
			name:        "blank content length means no body",
			input:       "POST /users HTTP/1.1\r\nContent-Length:   \r\n\r\nignored",
			wantMethod:  "POST",
			wantPath:    "/users",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Content-Length": ""},
		},
		{
			name:        "end of stream before terminator",
			input:       "GET /a/b HTTP/2.0\r\nHost: h\r\n",
			wantMethod:  "GET",
			wantPath:    "/a/b",
			wantVersion: "HTTP/2.0",
			wantHeaders: map[string]string{"Host": "h"},
		},
		{
			name:        "path with reserved characters",
			input:       "DELETE /a-b_c.d~e%20!$&'()*+,;=:@/ HTTP/1.1\r\nHost: h\r\n\r\n",
			wantMethod:  "DELETE",
			wantPath:    "/a-b_c.d~e%20!$&'()*+,;=:@/",
			wantVersion: "HTTP/1.1",
			wantHeaders: map[string]string{"Host": "h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ReadRequest(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadRequest() error = %v", err)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", req.Method, tt.wantMethod)
			}
			if req.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", req.Path, tt.wantPath)
			}
			if req.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", req.Version, tt.wantVersion)
			}
			if len(req.Headers) != len(tt.wantHeaders) {
				t.Errorf("Headers = %v, want %v", req.Headers, tt.wantHeaders)
			}
			for k, v := range tt.wantHeaders {
				if got := req.Headers[k]; got != v {
					t.Errorf("Headers[%q] = %q, want %q", k, got, v)
				}
			}
			if got := req.BodyString(); got != tt.wantBody {
				t.Errorf("Body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestReadRequest_AllMethods(t *testing.T) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "CONNECT", "TRACE"} {
		t.Run(m, func(t *testing.T) {
			req, err := ReadRequest(strings.NewReader(m + " / HTTP/1.1\r\nHost: h\r\n\r\n"))
			if err != nil {
				t.Fatalf("ReadRequest() error = %v", err)
			}
			if req.Method != m {
				t.Errorf("Method = %q, want %q", req.Method, m)
			}
		})
	}
}

// Only one request is consumed; bytes after the body stay in the reader.
func TestReadRequest_ConsumesExactlyOneRequest(t *testing.T) {
	input := "POST /users HTTP/1.1\r\nContent-Length: 3\r\n\r\nabcNEXT"
	br := bufio.NewReader(strings.NewReader(input))

	req, err := ReadRequest(br)
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if req.BodyString() != "abc" {
		t.Errorf("Body = %q, want %q", req.BodyString(), "abc")
	}
	rest, _ := io.ReadAll(br)
	if string(rest) != "NEXT" {
		t.Errorf("remaining = %q, want %q", rest, "NEXT")
	}
}

// ============================================================
// ReadRequest Tests - Rejections
// ============================================================

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty stream", "", ErrEmptyRequestLine},
		{"empty request line", "\r\nHost: h\r\n\r\n", ErrEmptyRequestLine},
		{"two tokens", "GET /\r\nHost: h\r\n\r\n", ErrMalformedRequestLine},
		{"four tokens", "GET / HTTP/1.1 extra\r\nHost: h\r\n\r\n", ErrMalformedRequestLine},
		{"unknown method", "FETCH / HTTP/1.1\r\nHost: h\r\n\r\n", ErrInvalidMethod},
		{"lowercase method", "get / HTTP/1.1\r\nHost: h\r\n\r\n", ErrInvalidMethod},
		{"relative path", "GET users HTTP/1.1\r\nHost: h\r\n\r\n", ErrInvalidPath},
		{"path with space escape missing", "GET /a<b HTTP/1.1\r\nHost: h\r\n\r\n", ErrInvalidPath},
		{"path with query", "GET /a?b=1 HTTP/1.1\r\nHost: h\r\n\r\n", ErrInvalidPath},
		{"bad version", "GET / HTTP/1\r\nHost: h\r\n\r\n", ErrInvalidVersion},
		{"lowercase version", "GET / http/1.1\r\nHost: h\r\n\r\n", ErrInvalidVersion},
		{"no headers", "GET / HTTP/1.1\r\n\r\n", ErrNoHeaders},
		{"no headers at end of stream", "GET / HTTP/1.1", ErrNoHeaders},
		{"non-integer content length", "POST / HTTP/1.1\r\nContent-Length: abc\r\n\r\n", ErrInvalidContentLength},
		{"negative content length", "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n", ErrNegativeContentLength},
		{"content length above limit", "POST / HTTP/1.1\r\nContent-Length: 10485761\r\n\r\n", ErrContentLengthTooLarge},
		{"truncated body", "POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n" + strings.Repeat("x", 50), ErrTruncatedBody},
		{"body missing entirely", "POST / HTTP/1.1\r\nContent-Length: 4\r\n\r\n", ErrTruncatedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ReadRequest(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("ReadRequest() = %+v, want error %v", req, tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error %T is not *ParseError", err)
			}
		})
	}
}

func TestReadRequest_ContentLengthAtLimit(t *testing.T) {
	body := bytes.Repeat([]byte{'a'}, MaxBodySize)
	input := append([]byte("POST / HTTP/1.1\r\nContent-Length: 10485760\r\n\r\n"), body...)

	req, err := ReadRequest(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if len(req.Body) != MaxBodySize {
		t.Errorf("len(Body) = %d, want %d", len(req.Body), MaxBodySize)
	}
}

func TestReadRequest_HeaderTooLarge(t *testing.T) {
	input := "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", MaxHeaderBytes) + "\r\n\r\n"

	_, err := ReadRequest(strings.NewReader(input))
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("error = %v, want ErrHeaderTooLarge", err)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadRequest_IOErrorIsNotParseError(t *testing.T) {
	ioErr := errors.New("connection reset")
	_, err := ReadRequest(failingReader{err: ioErr})
	if !errors.Is(err, ioErr) {
		t.Fatalf("error = %v, want wrapped %v", err, ioErr)
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Errorf("I/O failure reported as ParseError: %v", pe)
	}
}

// ============================================================
// ParseError Tests
// ============================================================

func TestParseError_IsMatchesByKind(t *testing.T) {
	err := newParseError(KindInvalidPath, "invalid path: %q", "x")
	if !errors.Is(err, ErrInvalidPath) {
		t.Error("errors.Is(err, ErrInvalidPath) = false")
	}
	if errors.Is(err, ErrInvalidMethod) {
		t.Error("errors.Is(err, ErrInvalidMethod) = true")
	}
	if got := err.Error(); got != `http1: invalid path: "x"` {
		t.Errorf("Error() = %q", got)
	}
	if KindInvalidPath.String() != "invalid_path" {
		t.Errorf("Kind.String() = %q", KindInvalidPath.String())
	}
}

func BenchmarkReadRequest(b *testing.B) {
	body := `{"username":"alice","password":"Secret#123"}`
	raw := "POST /users/login HTTP/1.1\r\n" +
		"Host: localhost:8080\r\n" +
		"User-Agent: bench\r\n" +
		"Accept: */*\r\n" +
		"Cookie: theme=dark; sessionId=0123456789abcdef0123456789abcdef\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" + body

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	for i := 0; i < b.N; i++ {
		if _, err := ReadRequest(strings.NewReader(raw)); err != nil {
			b.Fatalf("ReadRequest: %v", err)
		}
	}
}
