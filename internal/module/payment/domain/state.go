package domain

import "fmt"

// State is the lifecycle position of a Payment.
type State string

const (
	StateCreated                     State = "created"
	StateMethodSelected              State = "method_selected"
	StateAwaitingExternalCredentials State = "awaiting_external_credentials"
	StateCharged                     State = "charged"
)

// StateMachine validates Payment lifecycle transitions.
type StateMachine struct {
	transitions map[State][]State
}

// NewStateMachine creates the payment lifecycle.
//
//	created -> method_selected -> awaiting_external_credentials -> charged
//	created/method_selected -> charged (card, async notifications)
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[State][]State{
			StateCreated:                     {StateMethodSelected, StateCharged},
			StateMethodSelected:              {StateAwaitingExternalCredentials, StateCharged},
			StateAwaitingExternalCredentials: {StateAwaitingExternalCredentials, StateCharged},
			StateCharged:                     {}, // Terminal state
		},
	}
}

var lifecycle = NewStateMachine()

// CanTransition checks if a transition from `from` to `to` is valid.
func (sm *StateMachine) CanTransition(from, to State) bool {
	for _, s := range sm.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidState when from -> to is not allowed.
func (sm *StateMachine) Check(from, to State) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s (allowed: %v)", ErrInvalidState, from, to, sm.AllowedTransitions(from))
	}
	return nil
}

// AllowedTransitions returns all allowed transitions from the given state.
func (sm *StateMachine) AllowedTransitions(from State) []State {
	allowed := sm.transitions[from]
	result := make([]State, len(allowed))
	copy(result, allowed)
	return result
}
