package web

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

func TestNewTabs(t *testing.T) {
	m := NewTabs(0)
	assert.Equal(t, DefaultTabLimit, m.limit)
	assert.Equal(t, 0, m.Count())
}

func TestTabs_Open(t *testing.T) {
	m := NewTabs(4)
	defer m.Close()

	a := m.Open()
	b := m.Open()
	require.NotNil(t, a)
	assert.NotEqual(t, a.ID, b.ID)
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err, "tab id is a uuid")
	assert.Equal(t, 2, m.Count())

	assert.Same(t, a, m.Get(a.ID))
	assert.Nil(t, m.Get("missing"))
	assert.Nil(t, m.Get(""))
}

func TestTabs_IsolatedState(t *testing.T) {
	m := NewTabs(4)
	defer m.Close()

	a, b := m.Open(), m.Open()
	a.Store.OpenModal(uistate.ModalStateFieldEditor, "messages")
	assert.True(t, a.Store.State().ModalOpen())
	assert.Equal(t, uistate.DefaultState(), b.Store.State())
}

func TestTabs_EvictsLeastRecentlySeen(t *testing.T) {
	m := NewTabs(2)
	defer m.Close()

	a := m.Open()
	time.Sleep(5 * time.Millisecond)
	b := m.Open()
	time.Sleep(5 * time.Millisecond)
	m.Get(a.ID) // a is now more recent than b
	time.Sleep(5 * time.Millisecond)

	c := m.Open()
	assert.Equal(t, 2, m.Count())
	assert.NotNil(t, m.Get(a.ID))
	assert.Nil(t, m.Get(b.ID), "least recently seen tab evicted")
	assert.NotNil(t, m.Get(c.ID))
}

func TestTabs_Remove(t *testing.T) {
	m := NewTabs(2)
	a := m.Open()
	m.Remove(a.ID)
	assert.Nil(t, m.Get(a.ID))
	assert.Equal(t, 0, m.Count())
	assert.NotPanics(t, func() { m.Remove(a.ID) })
}

func TestTabs_Close(t *testing.T) {
	m := NewTabs(4)
	m.Open()
	m.Open()
	m.Close()
	assert.Equal(t, 0, m.Count())
}

func TestTab_ClosedStoreStopsPublishing(t *testing.T) {
	tab := NewTab("t1")
	tab.Close()
	// store still usable, the stream observer is detached
	assert.NotPanics(t, func() { tab.Store.ToggleInspector() })
	assert.False(t, tab.Store.State().ShowInspector)
}

func TestTab_Touch(t *testing.T) {
	tab := NewTab("t1")
	defer tab.Close()
	first := tab.LastSeen()
	time.Sleep(2 * time.Millisecond)
	tab.Touch()
	assert.True(t, tab.LastSeen().After(first))
}

func TestTabs_Broadcast(t *testing.T) {
	m := NewTabs(4)
	defer m.Close()
	m.Open()
	m.Open()
	assert.NotPanics(t, func() { m.Broadcast(NewProjectEvent("p")) })
}
