package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var ErrBadRequest = fmt.Errorf("bad request")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrInternal = fmt.Errorf("internal error")
var ErrNotFound = fmt.Errorf("not found")
var ErrRequest = fmt.Errorf("request error")
var ErrUnauthorized = fmt.Errorf("unauthorized")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

func NewBadRequestError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrBadRequest,
	}
}

func NewInternalError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInternal,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewUnauthorizedError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrUnauthorized,
	}
}

const maxDetailLength int = 256

// NewErrorFromResponse maps an error response from the record store to one of
// the sentinel errors in this package
func NewErrorFromResponse(code int, contentType string, body []byte) error {
	detail := extractDetail(contentType, body)

	switch {
	case code == http.StatusNotFound:
		return NewNotFoundError(detail)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewUnauthorizedError(detail)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict:
		return NewBadRequestError(detail)
	}

	return NewInternalError(fmt.Sprintf("[code: %d] record store failed with \"%s\"", code, detail))
}

func extractDetail(contentType string, body []byte) string {
	if strings.HasPrefix(contentType, "application/json") || strings.HasPrefix(contentType, "application/problem+json") {
		report := &struct {
			Detail  string `json:"detail"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}{}

		if err := json.Unmarshal(body, report); err == nil {
			for _, s := range []string{report.Detail, report.Message, report.Error} {
				if s != "" {
					return s
				}
			}
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > maxDetailLength {
		detail = detail[:maxDetailLength]
	}

	return detail
}
