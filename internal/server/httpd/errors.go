package httpd

import (
	"errors"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/protocol/http1"
)

// errorBody is the JSON error shape of the API surface.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusByCode maps domain error codes to HTTP status codes. Codes not
// listed become 500.
var statusByCode = map[string]int{
	domain.ErrInvalidInput.Code:         http1.StatusBadRequest,
	domain.ErrBadRequest.Code:           http1.StatusBadRequest,
	domain.ErrAuthenticationFailed.Code: http1.StatusUnauthorized,
	domain.ErrSessionNotFound.Code:      http1.StatusUnauthorized,
	domain.ErrSessionUserMismatch.Code:  http1.StatusForbidden,
	domain.ErrUserNotFound.Code:         http1.StatusNotFound,
	domain.ErrPathNotFound.Code:         http1.StatusNotFound,
	domain.ErrUserAlreadyExists.Code:    http1.StatusConflict,
	domain.ErrEmailAlreadyExists.Code:   http1.StatusConflict,
}

func errorResponse(status int, code, message string) *http1.Response {
	return http1.NewResponse().
		Status(status).
		JSON(errorBody{Error: code, Message: message}).
		Build()
}

// domainErrorResponse renders err as an API error. Errors that are not
// domain errors are reported as internal_error without their text.
func domainErrorResponse(err error) *http1.Response {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return jsonInternalError()
	}
	status, ok := statusByCode[de.Code]
	if !ok {
		status = http1.StatusInternalServerError
	}
	msg := de.Message
	if de.Details != "" {
		msg += ": " + de.Details
	}
	return errorResponse(status, de.Code, msg)
}

func jsonInternalError() *http1.Response {
	return errorResponse(http1.StatusInternalServerError, domain.ErrInternal.Code, domain.ErrInternal.Message)
}
