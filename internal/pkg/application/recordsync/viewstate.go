package recordsync

type Phase int

const (
	Loading Phase = iota
	Ready
	Submitting
	ConfirmingDelete
	Deleting
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case ConfirmingDelete:
		return "confirming-delete"
	case Deleting:
		return "deleting"
	}
	return "unknown"
}

// Dialog is the create/edit dialog of a tab. EditingID is empty when creating.
type Dialog struct {
	Open      bool
	EditingID string
	Form      Form
}

type ViewState struct {
	Phase         Phase
	Loaded        bool
	Snapshot      Snapshot
	Dialog        Dialog
	PendingDelete string

	LoadError error
	LastError error

	// set once a mutation succeeded, until the reload that follows it ends
	awaitingReload bool
}

type Action interface {
	isAction()
}

type LoadStarted struct{}
type LoadSucceeded struct{ Snapshot Snapshot }
type LoadFailed struct{ Err error }
type DialogOpened struct {
	EditingID string
	Form      Form
}
type FormEdited struct{ Field, Value string }
type DialogClosed struct{}
type SubmitStarted struct{}
type SubmitSucceeded struct{}
type SubmitFailed struct{ Err error }
type DeleteRequested struct{ RecordID string }
type DeleteCancelled struct{}
type DeleteConfirmed struct{}
type DeleteSucceeded struct{}
type DeleteFailed struct{ Err error }

func (LoadStarted) isAction()     {}
func (LoadSucceeded) isAction()   {}
func (LoadFailed) isAction()      {}
func (DialogOpened) isAction()    {}
func (FormEdited) isAction()      {}
func (DialogClosed) isAction()    {}
func (SubmitStarted) isAction()   {}
func (SubmitSucceeded) isAction() {}
func (SubmitFailed) isAction()    {}
func (DeleteRequested) isAction() {}
func (DeleteCancelled) isAction() {}
func (DeleteConfirmed) isAction() {}
func (DeleteSucceeded) isAction() {}
func (DeleteFailed) isAction()    {}

func NewViewState() ViewState {
	return ViewState{Phase: Loading}
}

// Accepts reports whether an action is a valid transition from the current state
func (s ViewState) Accepts(a Action) bool {
	switch a.(type) {
	case LoadStarted, LoadSucceeded, LoadFailed:
		return true
	case DialogOpened, DeleteRequested:
		return s.Phase == Ready
	case FormEdited, SubmitStarted:
		return s.Phase == Ready && s.Dialog.Open
	case DialogClosed:
		return s.Phase != Submitting
	case SubmitSucceeded, SubmitFailed:
		return s.Phase == Submitting
	case DeleteCancelled, DeleteConfirmed:
		return s.Phase == ConfirmingDelete
	case DeleteSucceeded, DeleteFailed:
		return s.Phase == Deleting
	}
	return false
}

// Reduce returns the state after applying an action. Actions that are not
// valid in the current state leave it unchanged.
func Reduce(s ViewState, a Action) ViewState {
	if !s.Accepts(a) {
		return s
	}

	switch action := a.(type) {
	case LoadStarted:
		// a load never takes over from a mutation in flight
		if !s.Loaded && (s.Phase == Ready || s.Phase == Loading) {
			s.Phase = Loading
		}
	case LoadSucceeded:
		s.Snapshot = action.Snapshot
		s.Loaded = true
		s.LoadError = nil
		s = settle(s)
	case LoadFailed:
		s.LoadError = action.Err
		s = settle(s)
	case DialogOpened:
		s.Dialog = Dialog{Open: true, EditingID: action.EditingID, Form: action.Form.Clone()}
		s.LastError = nil
	case FormEdited:
		form := s.Dialog.Form.Clone()
		form[action.Field] = action.Value
		s.Dialog.Form = form
	case DialogClosed:
		s.Dialog = Dialog{}
	case SubmitStarted:
		s.Phase = Submitting
		s.LastError = nil
	case SubmitSucceeded:
		s.Dialog = Dialog{}
		s.awaitingReload = true
	case SubmitFailed:
		s.Phase = Ready
		s.LastError = action.Err
	case DeleteRequested:
		s.Phase = ConfirmingDelete
		s.PendingDelete = action.RecordID
		s.LastError = nil
	case DeleteCancelled:
		s.Phase = Ready
		s.PendingDelete = ""
	case DeleteConfirmed:
		s.Phase = Deleting
	case DeleteSucceeded:
		s.PendingDelete = ""
		s.awaitingReload = true
	case DeleteFailed:
		s.Phase = ConfirmingDelete
		s.LastError = action.Err
	}

	return s
}

// settle ends the loading phase, and a submit or delete phase once the
// mutation behind it has completed. A mutation still in flight keeps its phase.
func settle(s ViewState) ViewState {
	switch s.Phase {
	case Loading:
		s.Phase = Ready
	case Submitting, Deleting:
		if s.awaitingReload {
			s.Phase = Ready
			s.awaitingReload = false
		}
	}
	return s
}
