package engine

import (
	"testing"

	"trimly/models"
)

func TestReleasesCapacity(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{models.BookingCancelled, true},
		{models.BookingRejected, true},
		{models.BookingNoShow, true},
		{models.BookingCompleted, false},
		{models.BookingConfirmed, false},
		{models.BookingPending, false},
		{models.BookingArrived, false},
		{models.BookingInProgress, false},
	}
	for _, c := range cases {
		if got := releasesCapacity(c.status); got != c.want {
			t.Errorf("releasesCapacity(%s) = %v, want %v", c.status, got, c.want)
		}
	}
}
