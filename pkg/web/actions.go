package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

// ui action names accepted by POST /api/ui/{action}.
const (
	ActionToggleStatePanel = "toggle-state-panel"
	ActionToggleInspector  = "toggle-inspector"
	ActionToggleTraceList  = "toggle-trace-list"
	ActionOpenModal        = "open-modal"
	ActionCloseModal       = "close-modal"
)

// actionError carries the http status for a rejected action.
type actionError struct {
	code int
	msg  string
}

func (e *actionError) Error() string { return e.msg }

// applyAction invokes the store action named by action.
// open-modal takes "modal" (empty means none) and an optional "field" form value;
// the field key is passed through only when the form carries it.
func applyAction(store *uistate.Store, action string, form url.Values) error {
	switch action {
	case ActionToggleStatePanel:
		store.ToggleStatePanel()
	case ActionToggleInspector:
		store.ToggleInspector()
	case ActionToggleTraceList:
		store.ToggleTraceList()
	case ActionCloseModal:
		store.CloseModal()
	case ActionOpenModal:
		modal, err := parseModal(form.Get("modal"))
		if err != nil {
			return &actionError{code: http.StatusBadRequest, msg: err.Error()}
		}
		if form.Has("field") {
			store.OpenModal(modal, form.Get("field"))
			return nil
		}
		store.OpenModal(modal)
	default:
		return &actionError{code: http.StatusNotFound, msg: fmt.Sprintf("unknown action %q", action)}
	}
	return nil
}

// parseModal maps a wire value to a modal identifier.
func parseModal(v string) (uistate.Modal, error) {
	switch m := uistate.Modal(v); m {
	case uistate.ModalNone, uistate.ModalStateFieldEditor:
		return m, nil
	}
	return uistate.ModalNone, fmt.Errorf("unknown modal %q", v)
}
