package consoleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/diwise/course-console/internal/pkg/application/console"
	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
	"github.com/diwise/course-console/internal/pkg/presentation/api/consoleapi/auth"
	"github.com/diwise/course-console/internal/pkg/presentation/api/consoleapi/problems"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// activate returns the tab, failing only if nothing could be loaded for it.
// A tab that has never loaded is given another try.
func activate(ctx context.Context, app console.Console, name string) (*rs.Tab, error) {
	tab, err := app.Activate(ctx, name)
	if tab == nil {
		return nil, err
	}

	if tab.State().Loaded {
		return tab, nil
	}

	if err == nil {
		err = tab.Reload(ctx)
	}

	if err != nil {
		return nil, err
	}

	return tab, nil
}

// readForm decodes a JSON object into form values. Numbers and booleans are
// accepted as such, null clears a field.
func readForm(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()

	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	values := map[string]any{}
	err = json.Unmarshal(body, &values)
	if err != nil {
		return nil, fmt.Errorf("request body is not a json object: %w (%w)", err, rs.ErrInvalidForm)
	}

	form := make(map[string]string, len(values))

	for k, v := range values {
		switch value := v.(type) {
		case nil:
			form[k] = ""
		case string:
			form[k] = value
		case float64:
			form[k] = strconv.FormatFloat(value, 'f', -1, 64)
		case bool:
			form[k] = strconv.FormatBool(value)
		default:
			return nil, fmt.Errorf("%s: unsupported value type %T (%w)", k, v, rs.ErrInvalidForm)
		}
	}

	return form, nil
}

// fillForm applies form values to the open dialog in a stable order
func fillForm(tab *rs.Tab, form map[string]string) error {
	names := make([]string, 0, len(form))
	for k := range form {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := tab.SetField(name, form[name]); err != nil {
			return err
		}
	}

	return nil
}

func recordLocation(tab, recordID string) string {
	return fmt.Sprintf("/api/v1/tabs/%s/records/%s", url.PathEscape(tab), url.PathEscape(recordID))
}

func NewCreateRecordHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")

		ctx, span := tracer.Start(ctx, "create-record", trace.WithAttributes(attribute.String(TraceAttributeTab, name)))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		form, err := readForm(r)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = tab.OpenCreate()
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = fillForm(tab, form)
		if err != nil {
			tab.CloseDialog()
			reportError(w, err, traceID(ctx))
			return
		}

		record, err := tab.Submit(ctx)
		if err != nil {
			log.Error("failed to create record", "tab", name, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		w.Header().Add("Location", recordLocation(name, record.ID))
		writeJSON(w, http.StatusCreated, tab.State().Snapshot.Card(tab.Entity(), record))
	})
}

// NewUpdateRecordHandler merges the sent values into the record's current
// form and submits it. Fields that are sent empty are cleared.
func NewUpdateRecordHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")
		recordID := chi.URLParam(r, "recordId")

		ctx, span := tracer.Start(ctx, "update-record", trace.WithAttributes(
			attribute.String(TraceAttributeTab, name),
			attribute.String(TraceAttributeRecordID, recordID),
		))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		form, err := readForm(r)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = tab.OpenEdit(recordID)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = fillForm(tab, form)
		if err != nil {
			tab.CloseDialog()
			reportError(w, err, traceID(ctx))
			return
		}

		record, err := tab.Submit(ctx)
		if err != nil {
			log.Error("failed to update record", "tab", name, "record", recordID, "err", err.Error())
			reportError(w, err, traceID(ctx))
			return
		}

		if current, ok := tab.State().Snapshot.Primary.Find(recordID); ok {
			record = current
		} else {
			record.ID = recordID
		}

		writeJSON(w, http.StatusOK, tab.State().Snapshot.Card(tab.Entity(), record))
	})
}

// NewDeleteRecordHandler requests and confirms the deletion of a record in
// one call. A deletion left pending for another record is cancelled first.
func NewDeleteRecordHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")
		recordID := chi.URLParam(r, "recordId")

		ctx, span := tracer.Start(ctx, "delete-record", trace.WithAttributes(
			attribute.String(TraceAttributeTab, name),
			attribute.String(TraceAttributeRecordID, recordID),
		))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		if tab.State().Phase == rs.ConfirmingDelete {
			tab.CancelDelete()
		}

		err = tab.RequestDelete(recordID)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = tab.ConfirmDelete(ctx)
		if err != nil {
			log.Error("failed to delete record", "tab", name, "record", recordID, "err", err.Error())
			tab.CancelDelete()
			reportError(w, err, traceID(ctx))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
