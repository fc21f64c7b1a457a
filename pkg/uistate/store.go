// Package uistate holds the presentation state of one modeler tab: panel visibility
// and the single modal slot. it owns no domain data.
package uistate

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Modal identifies the dialog occupying the modal slot.
type Modal string

// modal identifiers. ModalNone means the slot is empty.
const (
	ModalNone             Modal = ""
	ModalStateFieldEditor Modal = "state-field-editor"
)

// State is a snapshot of the coordination state.
// EditingFieldKey is meaningful only while ActiveModal is set.
type State struct {
	ShowStatePanel  bool   `json:"showStatePanel"`
	ShowInspector   bool   `json:"showInspector"`
	ShowTraceList   bool   `json:"showTraceList"`
	ActiveModal     Modal  `json:"activeModal,omitempty"`
	EditingFieldKey string `json:"editingFieldKey,omitempty"`
}

// DefaultState returns the state every store starts with.
func DefaultState() State {
	return State{ShowStatePanel: true, ShowInspector: true, ShowTraceList: true}
}

// ModalOpen reports whether the modal slot is occupied.
func (s State) ModalOpen() bool { return s.ActiveModal != ModalNone }

// Store is the mutable coordination state of a single tab.
// every action notifies all observers synchronously before it returns.
// actions issued while observers are being notified (from a callback or another goroutine)
// are queued and applied once the in-flight fan-out completes. a callback must not block on
// another goroutine that issues an action on the same store.
type Store struct {
	mu          sync.Mutex
	state       State
	observers   map[int]func(State)
	order       []int // subscription order, fan-out follows it
	nextID      int
	dispatching bool
	dispatcher  uint64 // goroutine running the fan-out
	queue       []pendingAction
}

// New creates a store with DefaultState.
func New() *Store {
	return &Store{state: DefaultState(), observers: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with the new snapshot after every action.
// the returned function removes the observer and is safe to call more than once.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
			for i, oid := range s.order {
				if oid == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// ToggleStatePanel flips ShowStatePanel.
func (s *Store) ToggleStatePanel() {
	s.apply(func(st *State) { st.ShowStatePanel = !st.ShowStatePanel })
}

// ToggleInspector flips ShowInspector.
func (s *Store) ToggleInspector() {
	s.apply(func(st *State) { st.ShowInspector = !st.ShowInspector })
}

// ToggleTraceList flips ShowTraceList.
func (s *Store) ToggleTraceList() {
	s.apply(func(st *State) { st.ShowTraceList = !st.ShowTraceList })
}

// OpenModal puts modal into the slot, replacing whatever was open.
// the editing key is set to fieldKey[0] when given and cleared otherwise.
// ModalNone is accepted and behaves like CloseModal, any key is dropped with it.
func (s *Store) OpenModal(modal Modal, fieldKey ...string) {
	key := ""
	if len(fieldKey) > 0 && modal != ModalNone {
		key = fieldKey[0]
	}
	s.apply(func(st *State) {
		st.ActiveModal = modal
		st.EditingFieldKey = key
	})
}

// CloseModal empties the modal slot and clears the editing key.
func (s *Store) CloseModal() {
	s.apply(func(st *State) {
		st.ActiveModal = ModalNone
		st.EditingFieldKey = ""
	})
}

// apply runs mutate and fans the resulting snapshot out to observers.
// observers are called without the lock held so they can read the store or issue actions.
// an action issued by an observer is queued and the call returns at once; an action from
// another goroutine waits until its own snapshot has been fanned out.
func (s *Store) apply(mutate func(*State)) {
	gid := goroutineID()
	for {
		s.mu.Lock()
		if !s.dispatching {
			s.dispatching = true
			s.dispatcher = gid
			s.mu.Unlock()
			s.dispatch(mutate)
			return
		}
		if s.dispatcher == gid {
			s.queue = append(s.queue, pendingAction{mutate: mutate})
			s.mu.Unlock()
			return
		}
		done := make(chan bool, 1)
		s.queue = append(s.queue, pendingAction{mutate: mutate, done: done})
		s.mu.Unlock()
		if <-done {
			return
		}
		// the fan-out before ours panicked and dropped the queue, run the action ourselves
	}
}

// dispatch applies first and then everything queued meanwhile, one fan-out per action.
// if an observer panics the queue is dropped and the store released before the panic propagates.
func (s *Store) dispatch(first func(*State)) {
	cur := pendingAction{mutate: first}
	finished := false
	defer func() {
		if finished {
			return
		}
		s.mu.Lock()
		dropped := s.queue
		s.queue = nil
		s.dispatching = false
		s.mu.Unlock()

		if cur.done != nil {
			cur.done <- true // applied, its fan-out was cut short
		}
		for _, p := range dropped {
			if p.done != nil {
				p.done <- false
			}
		}
	}()

	s.mu.Lock()
	for {
		cur.mutate(&s.state)
		snap := s.state
		fns := make([]func(State), 0, len(s.order))
		for _, id := range s.order {
			fns = append(fns, s.observers[id])
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(snap)
		}
		if cur.done != nil {
			cur.done <- true
			cur.done = nil
		}

		s.mu.Lock()
		if len(s.queue) == 0 {
			s.dispatching = false
			s.mu.Unlock()
			finished = true
			return
		}
		cur = s.queue[0]
		s.queue = s.queue[1:]
	}
}

// pendingAction is an action waiting for the running fan-out to finish.
// done is nil for actions issued by observers; otherwise it receives true once the action
// was applied and fanned out, false if it was dropped.
type pendingAction struct {
	mutate func(*State)
	done   chan bool
}

// goroutineID returns the id of the calling goroutine, parsed from the stack header
// "goroutine N [...]". used only to tell observer callbacks from other callers.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
