package consoleapi

import (
	"errors"
	"net/http"

	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
	"github.com/diwise/course-console/internal/pkg/presentation/api/consoleapi/problems"
	laerrors "github.com/diwise/course-console/pkg/livingapps/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

func reportError(w http.ResponseWriter, err error, traceID string) {
	tid := problems.TraceID(traceID)

	var loadErr *rs.LoadError
	var mutationErr *rs.MutationError

	switch {
	case errors.As(err, &loadErr):
		problems.NewRecordStoreError(err.Error(), tid).WriteResponse(w)
	case errors.Is(err, rs.ErrUnknownEntity), errors.Is(err, rs.ErrUnknownRecord), errors.Is(err, laerrors.ErrNotFound):
		problems.NewNotFound(err.Error(), tid).WriteResponse(w)
	case errors.Is(err, rs.ErrInvalidForm), errors.Is(err, laerrors.ErrBadRequest):
		problems.NewBadRequestData(err.Error(), tid).WriteResponse(w)
	case errors.Is(err, rs.ErrInvalidTransition):
		problems.NewConflict(err.Error(), tid).WriteResponse(w)
	case errors.As(err, &mutationErr):
		problems.NewRecordStoreError(err.Error(), tid).WriteResponse(w)
	default:
		problems.NewInternalError(err.Error(), tid).WriteResponse(w)
	}
}

func addLabelIfError(err error, labeler *otelhttp.Labeler) {
	if err != nil && labeler != nil {
		labeler.Add(attribute.Bool("error", true))
	}
}
