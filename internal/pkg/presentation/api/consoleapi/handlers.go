package consoleapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/diwise/course-console/internal/pkg/application/console"
	"github.com/diwise/course-console/internal/pkg/presentation/api/consoleapi/auth"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("course-console/api")

const (
	TraceAttributeTab      string = "console.tab"
	TraceAttributeRecordID string = "console.record-id"
)

func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, app console.Console) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1/tabs", func(r chi.Router) {
		r.Use(
			Logger(logging.GetFromContext(ctx)),
			RequiredContentTypes([]string{"application/json"}),
		)

		r.Get("/", NewListTabsHandler(app, authenticator))

		r.Route("/{tab}", func(r chi.Router) {
			r.Get("/", NewRetrieveTabHandler(app, authenticator))
			r.Post("/reload", NewReloadTabHandler(app, authenticator))
			r.Get("/form", NewCreateFormHandler(app, authenticator))
			r.Get("/options/{field}", NewRetrieveOptionsHandler(app, authenticator))

			r.Post("/records", NewCreateRecordHandler(app, authenticator))
			r.Route("/records/{recordId}", func(r chi.Router) {
				r.Get("/form", NewEditFormHandler(app, authenticator))
				r.Put("/", NewUpdateRecordHandler(app, authenticator))
				r.Delete("/", NewDeleteRecordHandler(app, authenticator))
			})
		})
	})

	return nil
}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequiredContentTypes(validTypes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")
			isValidContentType := true

			if len(contentType) > 0 {
				isValidContentType = false

				for _, t := range validTypes {
					if strings.HasPrefix(contentType, t) {
						isValidContentType = true
						break
					}
				}
			}

			if isValidContentType {
				next.ServeHTTP(w, r)
			} else {
				http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			}
		})
	}
}

func traceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
