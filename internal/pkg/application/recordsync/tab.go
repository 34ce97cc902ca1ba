package recordsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

// Tab keeps the view state of one entity type consistent with the record
// store. Remote calls are made without holding the lock, so concurrent reloads
// publish in completion order and the last one to complete wins.
type Tab struct {
	mu          sync.Mutex
	entity      EntityType
	loader      *Loader
	coordinator *Coordinator
	state       ViewState
}

func NewTab(entity EntityType, loader *Loader, coordinator *Coordinator) *Tab {
	return &Tab{
		entity:      entity,
		loader:      loader,
		coordinator: coordinator,
		state:       NewViewState(),
	}
}

func (t *Tab) Entity() EntityType {
	return t.entity
}

func (t *Tab) State() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tab) Cards() []Card {
	return t.State().Snapshot.Cards(t.entity)
}

func (t *Tab) dispatch(a Action) (ViewState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Accepts(a) {
		return t.state, fmt.Errorf("%T not allowed while %s (%w)", a, t.state.Phase, ErrInvalidTransition)
	}

	t.state = Reduce(t.state, a)
	return t.state, nil
}

// Reload runs one load cycle. On failure the previous state is kept.
func (t *Tab) Reload(ctx context.Context) error {
	t.dispatch(LoadStarted{})

	snapshot, err := t.loader.Load(ctx, t.entity.Name)
	if err != nil {
		t.dispatch(LoadFailed{Err: err})
		return err
	}

	t.dispatch(LoadSucceeded{Snapshot: snapshot})
	return nil
}

func (t *Tab) OpenCreate() error {
	_, err := t.dispatch(DialogOpened{Form: t.entity.NewForm()})
	return err
}

func (t *Tab) OpenEdit(recordID string) error {
	record, ok := t.State().Snapshot.Primary.Find(recordID)
	if !ok {
		return fmt.Errorf("%s %s (%w)", t.entity.Name, recordID, ErrUnknownRecord)
	}

	_, err := t.dispatch(DialogOpened{EditingID: recordID, Form: t.entity.FormFromRecord(record)})
	return err
}

func (t *Tab) SetField(field, value string) error {
	if _, ok := t.entity.Field(field); !ok {
		return newFormError(field, "unknown field")
	}

	_, err := t.dispatch(FormEdited{Field: field, Value: value})
	return err
}

func (t *Tab) CloseDialog() error {
	_, err := t.dispatch(DialogClosed{})
	return err
}

// Submit sends the dialog form to the record store and reloads on success.
// On failure the dialog stays open with the form as it was typed.
func (t *Tab) Submit(ctx context.Context) (types.Record, error) {
	state, err := t.dispatch(SubmitStarted{})
	if err != nil {
		return types.Record{}, err
	}

	fields, err := t.entity.Payload(state.Dialog.Form)
	if err != nil {
		t.dispatch(SubmitFailed{Err: err})
		return types.Record{}, err
	}

	var record types.Record

	if state.Dialog.EditingID == "" {
		record, err = t.coordinator.Create(ctx, t.entity, fields)
	} else {
		if original, ok := state.Snapshot.Primary.Find(state.Dialog.EditingID); ok {
			fields = t.entity.clearRemoved(fields, original)
		}
		record, err = t.coordinator.Update(ctx, t.entity, state.Dialog.EditingID, fields)
	}

	if err != nil {
		t.dispatch(SubmitFailed{Err: err})
		return types.Record{}, err
	}

	t.dispatch(SubmitSucceeded{})
	t.reloadAfterMutation(ctx)

	return record, nil
}

func (t *Tab) RequestDelete(recordID string) error {
	_, err := t.dispatch(DeleteRequested{RecordID: recordID})
	return err
}

func (t *Tab) CancelDelete() error {
	_, err := t.dispatch(DeleteCancelled{})
	return err
}

// ConfirmDelete deletes the record pending confirmation and reloads on success
func (t *Tab) ConfirmDelete(ctx context.Context) error {
	state, err := t.dispatch(DeleteConfirmed{})
	if err != nil {
		return err
	}

	err = t.coordinator.Delete(ctx, t.entity, state.PendingDelete)
	if err != nil {
		t.dispatch(DeleteFailed{Err: err})
		return err
	}

	t.dispatch(DeleteSucceeded{})
	t.reloadAfterMutation(ctx)

	return nil
}

// reloadAfterMutation does not fail the mutation, a failed reload is kept in
// the view state as LoadError
func (t *Tab) reloadAfterMutation(ctx context.Context) {
	if err := t.Reload(ctx); err != nil {
		logging.GetFromContext(ctx).Warn("reload after mutation failed", "entity", t.entity.Name, "err", err.Error())
	}
}
