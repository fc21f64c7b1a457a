package web

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultTabLimit is the default maximum number of live tabs.
const DefaultTabLimit = 64

// Tabs maintains a registry of open modeler tabs keyed by tab ID.
// when the limit is reached, the least recently seen tab is evicted.
type Tabs struct {
	mu    sync.RWMutex
	tabs  map[string]*Tab
	limit int
}

// NewTabs creates an empty registry. limit <= 0 uses DefaultTabLimit.
func NewTabs(limit int) *Tabs {
	if limit <= 0 {
		limit = DefaultTabLimit
	}
	return &Tabs{tabs: make(map[string]*Tab), limit: limit}
}

// Open registers a new tab with a random ID and default ui state.
func (m *Tabs) Open() *Tab {
	tab := NewTab(uuid.NewString())

	m.mu.Lock()
	var evicted *Tab
	if len(m.tabs) >= m.limit {
		evicted = m.oldest()
		delete(m.tabs, evicted.ID)
	}
	m.tabs[tab.ID] = tab
	m.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return tab
}

// oldest returns the least recently seen tab. must be called with lock held
// on a non-empty registry.
func (m *Tabs) oldest() *Tab {
	var res *Tab
	for _, t := range m.tabs {
		if res == nil || t.LastSeen().Before(res.LastSeen()) {
			res = t
		}
	}
	return res
}

// Get returns a tab by ID and marks it as seen, or nil if not found.
func (m *Tabs) Get(id string) *Tab {
	m.mu.RLock()
	tab := m.tabs[id]
	m.mu.RUnlock()

	if tab != nil {
		tab.Touch()
	}
	return tab
}

// Count returns the number of live tabs.
func (m *Tabs) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

// Broadcast publishes an event to every tab.
func (m *Tabs) Broadcast(e Event) {
	m.mu.RLock()
	all := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		all = append(all, t)
	}
	m.mu.RUnlock()

	for _, t := range all {
		t.Publish(e)
	}
}

// Remove removes a tab from the registry and closes it.
func (m *Tabs) Remove(id string) {
	m.mu.Lock()
	tab, ok := m.tabs[id]
	delete(m.tabs, id)
	m.mu.Unlock()

	if ok {
		tab.Close()
	}
}

// Close closes all tabs and clears the registry.
func (m *Tabs) Close() {
	m.mu.Lock()
	all := m.tabs
	m.tabs = make(map[string]*Tab)
	m.mu.Unlock()

	for _, t := range all {
		t.Close()
	}
}
