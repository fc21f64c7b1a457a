package project

import (
	"sync"
	"time"
)

// Holder stores the currently loaded project in a thread-safe way.
// it is the single source of the project for the web layer and the watcher.
type Holder struct {
	mu       sync.RWMutex
	project  *Project
	loadedAt time.Time
	onChange []func(p *Project)
}

// NewHolder creates a holder with an initial project. nil means Empty().
func NewHolder(p *Project) *Holder {
	if p == nil {
		p = Empty()
	}
	return &Holder{project: p, loadedAt: time.Now()}
}

// OnChange registers a callback fired after every Set.
func (h *Holder) OnChange(fn func(p *Project)) {
	h.mu.Lock()
	h.onChange = append(h.onChange, fn)
	h.mu.Unlock()
}

// Set replaces the project and fires the OnChange callbacks outside the lock.
func (h *Holder) Set(p *Project) {
	h.mu.Lock()
	h.project = p
	h.loadedAt = time.Now()
	cbs := make([]func(*Project), len(h.onChange))
	copy(cbs, h.onChange)
	h.mu.Unlock()

	for _, cb := range cbs {
		cb(p)
	}
}

// Get returns the current project. callers must treat it as read-only.
func (h *Holder) Get() *Project {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.project
}

// LoadedAt returns when the current project was set.
func (h *Holder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}
