package http1

// Status codes used by rawhttpd.
const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusNotAcceptable       = 406
	StatusConflict            = 409
	StatusInternalServerError = 500
)

// UnknownReason is the reason phrase for codes missing from the table.
const UnknownReason = "Unknown"

var reasonPhrases = map[int]string{
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusBadRequest:          "Bad Request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusNotAcceptable:       "Not Acceptable",
	StatusConflict:            "Conflict",
	StatusInternalServerError: "Internal Server Error",
}

// ReasonPhrase returns the canonical reason phrase for code.
func ReasonPhrase(code int) string {
	if r, ok := reasonPhrases[code]; ok {
		return r
	}
	return UnknownReason
}
