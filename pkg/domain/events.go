package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStateExit  EventType = "state_exit"
	EventTransition EventType = "transition"
)

// StateEvent records a single node entering or leaving the active branch.
type StateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Tree      string    `json:"tree"`
	State     string    `json:"state"`
}

// TransitionEvent records one committed transition between leaves.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Tree      string    `json:"tree"`

	// From is empty on the first commit after initialization.
	From string `json:"from,omitempty"`
	To   string `json:"to"`

	// BranchRoot is the common ancestor the cascades stopped at,
	// empty when the exit/enter cascades ran all the way to a root.
	BranchRoot string `json:"branch_root,omitempty"`

	// Depth counts how many transitions this commit call has applied so
	// far, including this one. Values above one indicate chained requests
	// made from enter/exit callbacks.
	Depth int `json:"depth"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks are invoked synchronously from the commit path; nil hooks are skipped.
type LifecycleHooks struct {
	OnStateEnter func(*StateEvent)
	OnStateExit  func(*StateEvent)
	OnTransition func(*TransitionEvent)
}

// Snapshot is the persistable view of a session's running context.
type Snapshot struct {
	Tree        string    `json:"tree"`
	ActiveState string    `json:"active_state"`
	UpdatedAt   time.Time `json:"updated_at"`
}
