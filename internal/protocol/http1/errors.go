package http1

import "fmt"

// ErrorKind classifies request parse failures.
type ErrorKind uint8

const (
	KindEmptyRequestLine ErrorKind = iota + 1
	KindMalformedRequestLine
	KindInvalidMethod
	KindInvalidPath
	KindInvalidVersion
	KindNoHeaders
	KindInvalidContentLength
	KindNegativeContentLength
	KindContentLengthTooLarge
	KindTruncatedBody
	KindHeaderTooLarge
)

var kindNames = map[ErrorKind]string{
	KindEmptyRequestLine:      "empty_request_line",
	KindMalformedRequestLine:  "malformed_request_line",
	KindInvalidMethod:         "invalid_method",
	KindInvalidPath:           "invalid_path",
	KindInvalidVersion:        "invalid_version",
	KindNoHeaders:             "no_headers",
	KindInvalidContentLength:  "invalid_content_length",
	KindNegativeContentLength: "negative_content_length",
	KindContentLengthTooLarge: "content_length_too_large",
	KindTruncatedBody:         "truncated_body",
	KindHeaderTooLarge:        "header_too_large",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseError reports a request that violates the accepted wire format.
// A ParseError is always terminal for the connection.
type ParseError struct {
	Kind    ErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return "http1: " + e.Message
}

// Is matches any ParseError of the same kind, so the sentinels below work
// with errors.Is regardless of message details.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newParseError(kind ErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is.
var (
	ErrEmptyRequestLine      = &ParseError{Kind: KindEmptyRequestLine, Message: "empty request line"}
	ErrMalformedRequestLine  = &ParseError{Kind: KindMalformedRequestLine, Message: "invalid request line"}
	ErrInvalidMethod         = &ParseError{Kind: KindInvalidMethod, Message: "invalid HTTP method"}
	ErrInvalidPath           = &ParseError{Kind: KindInvalidPath, Message: "invalid path"}
	ErrInvalidVersion        = &ParseError{Kind: KindInvalidVersion, Message: "invalid HTTP version"}
	ErrNoHeaders             = &ParseError{Kind: KindNoHeaders, Message: "no headers found in the request"}
	ErrInvalidContentLength  = &ParseError{Kind: KindInvalidContentLength, Message: "invalid Content-Length"}
	ErrNegativeContentLength = &ParseError{Kind: KindNegativeContentLength, Message: "negative Content-Length"}
	ErrContentLengthTooLarge = &ParseError{Kind: KindContentLengthTooLarge, Message: "Content-Length too large"}
	ErrTruncatedBody         = &ParseError{Kind: KindTruncatedBody, Message: "unexpected end of stream while reading body"}
	ErrHeaderTooLarge        = &ParseError{Kind: KindHeaderTooLarge, Message: "header block too large"}
)
