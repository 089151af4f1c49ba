package http1

import "encoding/json"

// jsonEncodeFailure is the body used when JSON cannot encode a value.
const jsonEncodeFailure = `{"error":"internal_error","message":"response encoding failed"}`

// ResponseBuilder assembles a Response step by step.
//
// No validation is done; callers keep status and body coherent.
type ResponseBuilder struct {
	resp Response
}

// NewResponse starts a builder for an HTTP/1.1 response with status 200.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		resp: Response{
			Version:    DefaultVersion,
			StatusCode: StatusOK,
			Reason:     ReasonPhrase(StatusOK),
			Headers:    make(map[string]string),
		},
	}
}

// Version sets the protocol version.
func (b *ResponseBuilder) Version(version string) *ResponseBuilder {
	b.resp.Version = version
	return b
}

// Status sets the status code and its canonical reason phrase.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.resp.StatusCode = code
	b.resp.Reason = ReasonPhrase(code)
	return b
}

// Header sets a single header.
func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.resp.Headers[key] = value
	return b
}

// Headers sets every entry of headers.
func (b *ResponseBuilder) Headers(headers map[string]string) *ResponseBuilder {
	for k, v := range headers {
		b.resp.Headers[k] = v
	}
	return b
}

// Body sets a raw body.
func (b *ResponseBuilder) Body(body []byte) *ResponseBuilder {
	b.resp.Body = body
	return b
}

// BodyString sets a text body.
func (b *ResponseBuilder) BodyString(body string) *ResponseBuilder {
	b.resp.Body = []byte(body)
	return b
}

// JSON marshals v as the body and sets Content-Type to application/json.
// If v cannot be encoded the response becomes a 500 internal_error.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.resp.Headers[HeaderContentType] = ContentTypeJSON
	data, err := json.Marshal(v)
	if err != nil {
		b.Status(StatusInternalServerError)
		b.resp.Body = []byte(jsonEncodeFailure)
		return b
	}
	b.resp.Body = data
	return b
}

// Build returns a Response detached from the builder.
func (b *ResponseBuilder) Build() *Response {
	out := b.resp
	out.Headers = make(map[string]string, len(b.resp.Headers))
	for k, v := range b.resp.Headers {
		out.Headers[k] = v
	}
	if b.resp.Body != nil {
		out.Body = append([]byte(nil), b.resp.Body...)
	}
	return &out
}
