package cartstate

import (
	"errors"
	"fmt"
)

// ErrMutationPending is returned when an item already has a mutation in
// flight, or more generally when a state transition is not allowed.
var ErrMutationPending = errors.New("cart item has a mutation in flight")

// ItemState is the lifecycle position of a single cart item's mutation.
type ItemState int

const (
	// Idle items accept a new mutation.
	Idle ItemState = iota
	// Pending items have a request in flight; further mutations are refused.
	Pending
	// Confirmed items have had their mutation accepted by the server.
	Confirmed
	// RolledBack items had their mutation fail and are being resynced.
	RolledBack
)

func (s ItemState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("ItemState(%d)", int(s))
	}
}

// event drives an item from one ItemState to the next.
type event int

const (
	eventBegin event = iota
	eventSucceed
	eventFail
	eventSettle
)

func (e event) String() string {
	switch e {
	case eventBegin:
		return "begin"
	case eventSucceed:
		return "succeed"
	case eventFail:
		return "fail"
	case eventSettle:
		return "settle"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transition is the whole state machine:
//
//	Idle --begin--> Pending --succeed--> Confirmed --settle--> Idle
//	                        --fail-----> RolledBack --settle--> Idle
func transition(from ItemState, ev event) (ItemState, error) {
	switch {
	case from == Idle && ev == eventBegin:
		return Pending, nil
	case from == Pending && ev == eventSucceed:
		return Confirmed, nil
	case from == Pending && ev == eventFail:
		return RolledBack, nil
	case (from == Confirmed || from == RolledBack) && ev == eventSettle:
		return Idle, nil
	}
	return from, fmt.Errorf("%w: cannot %s while %s", ErrMutationPending, ev, from)
}
