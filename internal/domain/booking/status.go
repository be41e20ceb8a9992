package booking

import "github.com/BruksfildServices01/marketplace/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s. A rejected booking is
// terminal even though accepting its suggestion spawns a new booking.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ===============================
// Validations
// ===============================

func CanApprove(current Status) error {
	return guard(current, StatusConfirmed, "booking_not_pending", "only pending bookings can be approved")
}

func CanReject(current Status) error {
	return guard(current, StatusRejected, "booking_not_pending", "only pending bookings can be rejected")
}

func CanCancel(current Status) error {
	return guard(current, StatusCancelled, "booking_not_cancellable", "booking can no longer be cancelled")
}

func CanComplete(current Status) error {
	return guard(current, StatusCompleted, "booking_not_confirmed", "only confirmed bookings can be completed")
}

// CanChat allows messages on confirmed bookings only.
func CanChat(current Status) error {
	switch current {
	case StatusConfirmed:
		return nil
	case StatusCompleted:
		return httperr.ErrPrecondition("chat_closed", "the service was completed, chat is closed")
	}
	return httperr.ErrPrecondition("chat_unavailable", "chat is only available for confirmed bookings")
}

func InitialStatus() Status {
	return StatusPending
}

func guard(current, next Status, code, message string) error {
	if !current.Valid() {
		return httperr.ErrPrecondition("unknown_status", "booking has an unknown status: "+string(current))
	}
	if !current.CanTransitionTo(next) {
		return httperr.ErrPrecondition(code, message)
	}
	return nil
}
