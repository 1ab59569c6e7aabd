package narrow

import "sync"

// State is the narrow state of the client view.
type State string

// narrow states.
const (
	Home            State = "home"
	ByStream        State = "stream"
	ByStreamSubject State = "stream-subject"
	ByConversation  State = "conversation"
)

// Narrowed reports whether s is one of the narrowed states.
func (s State) Narrowed() bool {
	switch s {
	case ByStream, ByStreamSubject, ByConversation:
		return true
	default:
		return false
	}
}

// Holder stores the current narrow state in a thread-safe way.
// the zero value is in Home state.
type Holder struct {
	mu       sync.RWMutex
	state    State
	onChange func(old, cur State)
}

// OnChange registers a callback that fires when the state changes.
// only one callback is supported; subsequent calls replace the previous one.
func (h *Holder) OnChange(fn func(old, cur State)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Set updates the current state and fires the OnChange callback if the state changed.
func (h *Holder) Set(s State) {
	h.mu.Lock()
	old := h.get()
	h.state = s
	cb := h.onChange
	h.mu.Unlock()

	if old != s && cb != nil {
		cb(old, s)
	}
}

// Get returns the current state.
func (h *Holder) Get() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.get()
}

func (h *Holder) get() State {
	if h.state == "" {
		return Home
	}
	return h.state
}
