package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the full lifecycle: an order moves forward one step at a
// time and can be cancelled until it has shipped out for delivery.
// Delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status literal.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// EventType derives the notification event type for a status, e.g.
// ORDER_CONFIRMED.
func (s Status) EventType() string {
	return "ORDER_" + strings.ToUpper(string(s))
}

// EventTypeCreated is emitted when an order is first created.
const EventTypeCreated = "ORDER_CREATED"

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Unknown literals on either side are never allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of the order moved to the next status. It is a
// pure function: persistence, and the optimistic precondition that guards
// it, are the repository's job.
func Transition(o Order, next Status, now time.Time) (Order, error) {
	if !CanTransition(o.Status, next) {
		return Order{}, &InvalidTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	o.UpdatedAt = now.UTC()
	return o, nil
}

// InvalidTransitionError reports a transition the lifecycle does not allow,
// including attempts to leave a terminal state or to use an unrecognized
// status literal.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order: cannot transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

// ErrConflictingTransition is returned when the optimistic precondition
// fails: another request changed the order's status between this request's
// read and its write. The caller may re-read the order and retry.
var ErrConflictingTransition = errors.New("order: conflicting concurrent transition")
