package engine

import (
	"testing"
	"time"
)

func TestNoShowDue(t *testing.T) {
	scheduled := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		graceMinutes int
		defaultGrace int
		now          time.Time
		want         bool
	}{
		{"before slot", 5, 5, scheduled.Add(-time.Minute), false},
		{"at slot start", 5, 5, scheduled, false},
		{"inside grace", 5, 5, scheduled.Add(4 * time.Minute), false},
		{"at grace boundary", 5, 5, scheduled.Add(5 * time.Minute), false},
		{"past grace", 5, 5, scheduled.Add(5*time.Minute + time.Second), true},
		{"shop override wins", 30, 5, scheduled.Add(10 * time.Minute), false},
		{"shop override elapsed", 30, 5, scheduled.Add(31 * time.Minute), true},
		{"zero override falls back", 0, 5, scheduled.Add(6 * time.Minute), true},
		{"negative override falls back", -1, 5, scheduled.Add(6 * time.Minute), true},
	}
	for _, c := range cases {
		if got := noShowDue(scheduled, c.graceMinutes, c.defaultGrace, c.now); got != c.want {
			t.Errorf("%s: noShowDue = %v, want %v", c.name, got, c.want)
		}
	}
}
