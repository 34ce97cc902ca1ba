package problems

import (
	"encoding/json"
	"net/http"
)

// ProblemDetails stores details about a certain problem according to RFC7807
// See https://tools.ietf.org/html/rfc7807
type ProblemDetails interface {
	ContentType() string
	Type() string
	Title() string
	Detail() string
	MarshalJSON() ([]byte, error)
	WriteResponse(w http.ResponseWriter)
}

type ProblemDetailsImpl struct {
	typ     string
	title   string
	detail  string
	code    int
	traceID string
}

const (
	// ProblemReportContentType as required by https://tools.ietf.org/html/rfc7807
	ProblemReportContentType string = "application/problem+json"

	problemTypeBase string = "https://diwise.io/course-console/problems/"
)

type Option func(*ProblemDetailsImpl)

func TraceID(traceID string) Option {
	return func(p *ProblemDetailsImpl) {
		p.traceID = traceID
	}
}

func newProblem(typ, title, detail string, code int, opts []Option) *ProblemDetailsImpl {
	p := &ProblemDetailsImpl{
		typ:    problemTypeBase + typ,
		title:  title,
		detail: detail,
		code:   code,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func NewBadRequestData(detail string, opts ...Option) ProblemDetails {
	return newProblem("BadRequestData", "Bad Request Data", detail, http.StatusBadRequest, opts)
}

func NewConflict(detail string, opts ...Option) ProblemDetails {
	return newProblem("Conflict", "Conflict", detail, http.StatusConflict, opts)
}

func NewInternalError(detail string, opts ...Option) ProblemDetails {
	return newProblem("InternalError", "Internal Error", detail, http.StatusInternalServerError, opts)
}

func NewNotFound(detail string, opts ...Option) ProblemDetails {
	return newProblem("ResourceNotFound", "Not Found", detail, http.StatusNotFound, opts)
}

// NewRecordStoreError reports that the upstream record store could not serve the request
func NewRecordStoreError(detail string, opts ...Option) ProblemDetails {
	return newProblem("RecordStoreError", "Record Store Error", detail, http.StatusBadGateway, opts)
}

func NewUnauthorizedRequest(detail string, opts ...Option) ProblemDetails {
	return newProblem("UnauthorizedRequest", "Unauthorized Request", detail, http.StatusUnauthorized, opts)
}

func NewUnsupportedMediaType(detail string, opts ...Option) ProblemDetails {
	return newProblem("UnsupportedMediaType", "Unsupported Media Type", detail, http.StatusUnsupportedMediaType, opts)
}

func (p *ProblemDetailsImpl) ContentType() string {
	return ProblemReportContentType
}

func (p *ProblemDetailsImpl) Type() string {
	return p.typ
}

func (p *ProblemDetailsImpl) Title() string {
	return p.title
}

func (p *ProblemDetailsImpl) Detail() string {
	return p.detail
}

func (p *ProblemDetailsImpl) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Status  int    `json:"status"`
		Detail  string `json:"detail,omitempty"`
		TraceID string `json:"traceId,omitempty"`
	}{
		Type:    p.typ,
		Title:   p.title,
		Status:  p.ResponseCode(),
		Detail:  p.detail,
		TraceID: p.traceID,
	})
}

// ResponseCode returns the HTTP response code to be used when returning a specific problem
func (p *ProblemDetailsImpl) ResponseCode() int {
	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

func (p *ProblemDetailsImpl) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", p.ContentType())
	w.Header().Add("Content-Language", "de")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
