// Package web provides the HTTP server of the modeler page, per-tab ui state and SSE streaming.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/lgmodeler/lgmodeler/pkg/uistate"
)

// EventType represents the type of event being streamed.
type EventType string

// event type constants for SSE streaming.
const (
	EventTypeState   EventType = "state"   // ui coordination snapshot
	EventTypeProject EventType = "project" // project file was reloaded
)

// Event is a single event streamed to a tab.
type Event struct {
	Type      EventType      `json:"type"`
	State     *uistate.State `json:"state,omitempty"`
	Project   string         `json:"project,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewStateEvent creates a state snapshot event with current timestamp.
func NewStateEvent(st uistate.State) Event {
	return Event{Type: EventTypeState, State: &st, Timestamp: time.Now()}
}

// NewProjectEvent creates a project reload event.
func NewProjectEvent(name string) Event {
	return Event{Type: EventTypeProject, Project: name, Timestamp: time.Now()}
}

// JSON returns the event as JSON bytes.
func (e Event) JSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Message converts the event to an SSE message with the event type as the SSE event name.
func (e Event) Message() (*sse.Message, error) {
	data, err := e.JSON()
	if err != nil {
		return nil, err
	}
	m := &sse.Message{Type: sse.Type(string(e.Type))}
	m.AppendData(string(data))
	return m, nil
}
