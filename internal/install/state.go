package install

import "fmt"

// State is where one install attempt stands.
type State string

const (
	NotInstalled           State = "not_installed"
	AuthPending            State = "auth_pending"
	Authorized             State = "authorized"
	Embedded               State = "embedded"
	AuthFailed             State = "auth_failed"
	InstallationIncomplete State = "installation_incomplete"
)

var transitions = map[State][]State{
	NotInstalled: {AuthPending},
	AuthPending:  {Authorized, AuthFailed},
	Authorized:   {Embedded, InstallationIncomplete},
}

// Next returns to when the move from s is allowed.
func (s State) Next(to State) (State, error) {
	for _, ok := range transitions[s] {
		if ok == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, to)
}

// Terminal reports whether no further transition exists.
func (s State) Terminal() bool { return len(transitions[s]) == 0 }
