package web

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

func TestApplyAction(t *testing.T) {
	tbl := []struct {
		name   string
		action string
		form   url.Values
		setup  func(*uistate.Store)
		want   func(uistate.State) uistate.State
	}{
		{name: "toggle state panel", action: ActionToggleStatePanel,
			want: func(s uistate.State) uistate.State { s.ShowStatePanel = false; return s }},
		{name: "toggle inspector", action: ActionToggleInspector,
			want: func(s uistate.State) uistate.State { s.ShowInspector = false; return s }},
		{name: "toggle trace list", action: ActionToggleTraceList,
			want: func(s uistate.State) uistate.State { s.ShowTraceList = false; return s }},
		{name: "open with field", action: ActionOpenModal, form: url.Values{"modal": {"state-field-editor"}, "field": {"k"}},
			want: func(s uistate.State) uistate.State {
				s.ActiveModal, s.EditingFieldKey = uistate.ModalStateFieldEditor, "k"
				return s
			}},
		{name: "open without field clears key", action: ActionOpenModal, form: url.Values{"modal": {"state-field-editor"}},
			setup: func(st *uistate.Store) { st.OpenModal(uistate.ModalStateFieldEditor, "old") },
			want: func(s uistate.State) uistate.State {
				s.ActiveModal = uistate.ModalStateFieldEditor
				return s
			}},
		{name: "open none closes", action: ActionOpenModal, form: url.Values{"modal": {""}, "field": {"k"}},
			setup: func(st *uistate.Store) { st.OpenModal(uistate.ModalStateFieldEditor, "old") },
			want: func(s uistate.State) uistate.State { return s }},
		{name: "close", action: ActionCloseModal,
			setup: func(st *uistate.Store) { st.OpenModal(uistate.ModalStateFieldEditor, "old") },
			want:  func(s uistate.State) uistate.State { return s }},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			store := uistate.New()
			if tt.setup != nil {
				tt.setup(store)
			}
			require.NoError(t, applyAction(store, tt.action, tt.form))
			assert.Equal(t, tt.want(uistate.DefaultState()), store.State())
		})
	}
}

func TestApplyAction_Errors(t *testing.T) {
	store := uistate.New()

	err := applyAction(store, "explode", nil)
	var ae *actionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.code)

	err = applyAction(store, ActionOpenModal, url.Values{"modal": {"settings"}})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.code)
	assert.Contains(t, ae.Error(), `unknown modal "settings"`)

	assert.Equal(t, uistate.DefaultState(), store.State())
}

func TestParseModal(t *testing.T) {
	m, err := parseModal("state-field-editor")
	require.NoError(t, err)
	assert.Equal(t, uistate.ModalStateFieldEditor, m)

	m, err = parseModal("")
	require.NoError(t, err)
	assert.Equal(t, uistate.ModalNone, m)

	_, err = parseModal("State-Field-Editor")
	require.Error(t, err)
}
