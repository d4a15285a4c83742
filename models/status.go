package models

// Booking lifecycle statuses.
const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingArrived    = "arrived"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingNoShow     = "no_show"
	BookingRejected   = "rejected"
	BookingCancelled  = "cancelled"
)

// Booking types.
const (
	BookingOnline = "online"
	BookingWalkin = "walkin"
)

// Slot statuses.
const (
	SlotAvailable = "available"
	SlotBlocked   = "blocked"
	SlotFull      = "full"
)

// Invoice statuses.
const (
	InvoicePending   = "pending"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// bookingTransitions lists the legal successor states for each booking
// status. Terminal states have no successors.
var bookingTransitions = map[string][]string{
	BookingPending:    {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed:  {BookingArrived, BookingNoShow, BookingCancelled},
	BookingArrived:    {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
	BookingCompleted:  {},
	BookingNoShow:     {},
	BookingRejected:   {},
	BookingCancelled:  {},
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalBookingStatus reports whether no further transitions are
// permitted out of the given status.
func IsTerminalBookingStatus(status string) bool {
	return len(bookingTransitions[status]) == 0
}

// PredecessorsOf returns every status from which a transition to the
// given status is legal.
func PredecessorsOf(to string) []string {
	var out []string
	for from, succs := range bookingTransitions {
		for _, s := range succs {
			if s == to {
				out = append(out, from)
			}
		}
	}
	return out
}

// HoldingStatuses are the booking statuses that occupy slot capacity.
// A booking leaving this set must release one capacity unit.
var HoldingStatuses = []string{BookingPending, BookingConfirmed, BookingArrived, BookingInProgress}

// HoldsCapacity reports whether a booking in the given status counts
// toward its slot's bookedCount.
func HoldsCapacity(status string) bool {
	for _, s := range HoldingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
