package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

// Tab is one open modeler page. it owns the page's ui coordination store
// and an SSE stream that receives every snapshot the store produces.
type Tab struct {
	ID    string
	Store *uistate.Store

	stream      *sse.Server
	unsubscribe func()

	mu       sync.Mutex
	lastSeen time.Time
}

// NewTab creates a tab with a fresh store and wires the store to the tab's stream.
func NewTab(id string) *Tab {
	t := &Tab{
		ID:       id,
		Store:    uistate.New(),
		stream:   &sse.Server{},
		lastSeen: time.Now(),
	}
	t.unsubscribe = t.Store.Subscribe(func(st uistate.State) {
		t.Publish(NewStateEvent(st))
	})
	return t
}

// Publish sends an event to every stream subscriber of the tab.
// failures are logged, a tab with no listeners is not an error.
func (t *Tab) Publish(e Event) {
	m, err := e.Message()
	if err != nil {
		log.Printf("[WARN] tab %s: %v", t.ID, err)
		return
	}
	if err := t.stream.Publish(m); err != nil {
		log.Printf("[DEBUG] tab %s: publish %s: %v", t.ID, e.Type, err)
	}
}

// ServeStream attaches the request to the tab's SSE stream. blocks until the client goes away.
func (t *Tab) ServeStream(w http.ResponseWriter, r *http.Request) {
	t.Touch()
	t.stream.ServeHTTP(w, r)
}

// Touch marks the tab as recently used.
func (t *Tab) Touch() {
	t.mu.Lock()
	t.lastSeen = time.Now()
	t.mu.Unlock()
}

// LastSeen returns the last time the tab was used.
func (t *Tab) LastSeen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

// Close detaches the store and disconnects stream clients.
func (t *Tab) Close() {
	t.unsubscribe()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := t.stream.Shutdown(ctx); err != nil {
		log.Printf("[DEBUG] tab %s: %v", t.ID, fmt.Errorf("shutdown stream: %w", err))
	}
}
