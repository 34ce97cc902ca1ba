package consoleapi

import (
	"encoding/json"
	"fmt"
	"net/http"

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

type dialogView struct {
	EditingID string            `json:"editingId,omitempty"`
	Form      map[string]string `json:"form"`
}

type tabView struct {
	Tab           string      `json:"tab"`
	Label         string      `json:"label"`
	Phase         string      `json:"phase"`
	Loaded        bool        `json:"loaded"`
	Cards         []rs.Card   `json:"cards"`
	Dialog        *dialogView `json:"dialog,omitempty"`
	PendingDelete string      `json:"pendingDelete,omitempty"`
	LoadError     string      `json:"loadError,omitempty"`
	LastError     string      `json:"lastError,omitempty"`
}

func newTabView(tab *rs.Tab) tabView {
	et := tab.Entity()
	state := tab.State()

	view := tabView{
		Tab:           et.Name,
		Label:         et.Label,
		Phase:         state.Phase.String(),
		Loaded:        state.Loaded,
		Cards:         state.Snapshot.Cards(et),
		PendingDelete: state.PendingDelete,
	}

	if state.Dialog.Open {
		view.Dialog = &dialogView{EditingID: state.Dialog.EditingID, Form: state.Dialog.Form.Clone()}
	}

	if state.LoadError != nil {
		view.LoadError = state.LoadError.Error()
	}

	if state.LastError != nil {
		view.LastError = state.LastError.Error()
	}

	return view
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		problems.NewInternalError(err.Error()).WriteResponse(w)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

func NewListTabsHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		err = authenticator.CheckAccess(ctx, r, "")
		if err != nil {
			logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		writeJSON(w, http.StatusOK, app.Tabs())
	})
}

// NewRetrieveTabHandler activates a tab and returns its view. A failed load
// is reported inside the view, together with whatever was loaded before.
func NewRetrieveTabHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")

		ctx, span := tracer.Start(ctx, "retrieve-tab", trace.WithAttributes(attribute.String(TraceAttributeTab, name)))
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

		tab, err := app.Activate(ctx, name)
		if tab == nil {
			reportError(w, err, traceID(ctx))
			return
		}

		if err != nil {
			log.Warn("tab loaded with errors", "tab", name, "err", err.Error())
		}

		writeJSON(w, http.StatusOK, newTabView(tab))
	})
}

func NewReloadTabHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")

		ctx, span := tracer.Start(ctx, "reload-tab", trace.WithAttributes(attribute.String(TraceAttributeTab, name)))
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		labeler, _ := otelhttp.LabelerFromContext(ctx)
		defer func() { addLabelIfError(err, labeler) }()

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		err = tab.Reload(ctx)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, newTabView(tab))
	})
}

// NewCreateFormHandler returns an empty form with the defaults of the tab's entity type
func NewCreateFormHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		et, ok := app.Registry().Get(name)
		if !ok {
			reportError(w, rs.ErrUnknownEntity, traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, et.NewForm())
	})
}

func NewEditFormHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")
		recordID := chi.URLParam(r, "recordId")

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		record, ok := tab.State().Snapshot.Primary.Find(recordID)
		if !ok {
			reportError(w, fmt.Errorf("%s %s (%w)", name, recordID, rs.ErrUnknownRecord), traceID(ctx))
			return
		}

		writeJSON(w, http.StatusOK, tab.Entity().FormFromRecord(record))
	})
}

// NewRetrieveOptionsHandler lists the records a reference field can be set to
func NewRetrieveOptionsHandler(app console.Console, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		name := chi.URLParam(r, "tab")
		fieldName := chi.URLParam(r, "field")

		err = authenticator.CheckAccess(ctx, r, name)
		if err != nil {
			logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
			problems.NewUnauthorizedRequest("", problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		tab, err := activate(ctx, app, name)
		if err != nil {
			reportError(w, err, traceID(ctx))
			return
		}

		field, ok := tab.Entity().Field(fieldName)
		if !ok || field.Kind != rs.Ref {
			problems.NewNotFound("no reference field named "+fieldName, problems.TraceID(traceID(ctx))).WriteResponse(w)
			return
		}

		writeJSON(w, http.StatusOK, tab.State().Snapshot.Options(field))
	})
}
