package booking

import "github.com/cetler74/dbcars-sub000/internal/domain"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending        Status = "pending"
	StatusWaitingPayment Status = "waiting_payment"
	StatusConfirmed      Status = "confirmed"
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:        {StatusWaitingPayment, StatusConfirmed, StatusCancelled},
	StatusWaitingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusActive, StatusCancelled},
	StatusActive:         {StatusCompleted, StatusCancelled},
}

// ActiveHoldingStatuses are the statuses whose bookings occupy their subunit.
var ActiveHoldingStatuses = []Status{StatusPending, StatusWaitingPayment, StatusConfirmed, StatusActive}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusWaitingPayment, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", domain.NewValidationError("unknown booking status: %s", s)
}

// CanTransitionTo reports whether the state machine allows s -> to.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsActiveHolding reports whether a booking in s blocks its interval.
func (s Status) IsActiveHolding() bool {
	switch s {
	case StatusPending, StatusWaitingPayment, StatusConfirmed, StatusActive:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
