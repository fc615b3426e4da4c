package wizard

import "fmt"

// State is a wizard step
type State string

const (
	StateDashboard  State = "dashboard"
	StateReason     State = "reason"
	StateGuidelines State = "guidelines"
	StateCamera     State = "camera"
	StateEditor     State = "editor"
	StateAddress    State = "address"
	StateSuccess    State = "success"
)

// transitions lists the forward edges. Every state other than dashboard
// can also go back to dashboard.
var transitions = map[State][]State{
	StateDashboard:  {StateReason},
	StateReason:     {StateGuidelines},
	StateGuidelines: {StateCamera},
	StateCamera:     {StateEditor},
	StateEditor:     {StateCamera, StateAddress},
	StateAddress:    {StateEditor, StateSuccess},
	StateSuccess:    {},
}

// States returns every state in flow order
func States() []State {
	return []State{
		StateDashboard,
		StateReason,
		StateGuidelines,
		StateCamera,
		StateEditor,
		StateAddress,
		StateSuccess,
	}
}

// CanTransition reports whether from -> to is an edge of the flow
func CanTransition(from, to State) bool {
	if to == StateDashboard {
		return from != StateDashboard
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine holds the current state. It has no locking of its own; the
// owning session serialises access.
type Machine struct {
	state        State
	onTransition func(from, to State)
}

// NewMachine starts at the dashboard
func NewMachine(onTransition func(from, to State)) *Machine {
	return &Machine{state: StateDashboard, onTransition: onTransition}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Transition moves to the given state or fails without changing anything
func (m *Machine) Transition(to State) error {
	from := m.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
	return nil
}

// Require fails unless the machine is in one of states
func (m *Machine) Require(states ...State) error {
	for _, s := range states {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: operation not allowed in %s", ErrInvalidTransition, m.state)
}
