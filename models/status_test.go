package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingArrived, false},
		{BookingPending, BookingCompleted, false},

		{BookingConfirmed, BookingArrived, true},
		{BookingConfirmed, BookingNoShow, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingConfirmed, BookingCompleted, false},

		{BookingArrived, BookingInProgress, true},
		{BookingArrived, BookingCancelled, true},
		{BookingArrived, BookingNoShow, false},

		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingCancelled, false},

		// terminal states go nowhere
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingPending, false},
		{BookingNoShow, BookingConfirmed, false},
		{BookingRejected, BookingConfirmed, false},

		{"bogus", BookingConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestPredecessorsOf(t *testing.T) {
	cases := map[string][]string{
		BookingConfirmed:  {BookingPending},
		BookingArrived:    {BookingConfirmed},
		BookingInProgress: {BookingArrived},
		BookingCompleted:  {BookingInProgress},
		BookingNoShow:     {BookingConfirmed},
		BookingRejected:   {BookingPending},
	}
	for to, want := range cases {
		got := PredecessorsOf(to)
		if len(got) != len(want) {
			t.Fatalf("PredecessorsOf(%s) = %v, want %v", to, got, want)
		}
		for _, w := range want {
			found := false
			for _, g := range got {
				if g == w {
					found = true
				}
			}
			if !found {
				t.Errorf("PredecessorsOf(%s) = %v, missing %s", to, got, w)
			}
		}
	}

	// cancelled is reachable from every non-terminal, pre-service state
	got := PredecessorsOf(BookingCancelled)
	if len(got) != 3 {
		t.Fatalf("PredecessorsOf(cancelled) = %v, want pending/confirmed/arrived", got)
	}
}

func TestIsTerminalBookingStatus(t *testing.T) {
	for _, s := range []string{BookingCompleted, BookingNoShow, BookingRejected, BookingCancelled} {
		if !IsTerminalBookingStatus(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []string{BookingPending, BookingConfirmed, BookingArrived, BookingInProgress} {
		if IsTerminalBookingStatus(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestHoldsCapacity(t *testing.T) {
	for _, s := range []string{BookingPending, BookingConfirmed, BookingArrived, BookingInProgress} {
		if !HoldsCapacity(s) {
			t.Errorf("%s should hold capacity", s)
		}
	}
	for _, s := range []string{BookingCompleted, BookingNoShow, BookingRejected, BookingCancelled} {
		if HoldsCapacity(s) {
			t.Errorf("%s should not hold capacity", s)
		}
	}
}

func TestHasPermission(t *testing.T) {
	if !HasPermission(RolePlatformSuperAdmin, "anything_at_all") {
		t.Error("super admin should bypass the permission table")
	}
	if !HasPermission(RoleClientAdmin, PermManageShops) {
		t.Error("client admin should manage shops")
	}
	if HasPermission(RoleCustomer, PermManageShops) {
		t.Error("customer should not manage shops")
	}
	if !HasPermission(RoleCustomer, PermBookSlot) {
		t.Error("customer should book slots")
	}
	if HasPermission(RoleStaff, PermManageSettings) {
		t.Error("staff should not manage settings")
	}
	if HasPermission("unknown_role", PermBookSlot) {
		t.Error("unknown role should have no permissions")
	}
}
