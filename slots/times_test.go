package slots

import "testing"

func TestDayWindowsFullDay(t *testing.T) {
	windows, err := dayWindows("09:00", "18:00", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 18 {
		t.Fatalf("expected 18 windows, got %d", len(windows))
	}
	if windows[0].Start != "09:00" || windows[0].End != "09:30" {
		t.Errorf("first window = %+v", windows[0])
	}
	if windows[17].Start != "17:30" || windows[17].End != "18:00" {
		t.Errorf("last window = %+v", windows[17])
	}

	// windows are consecutive and non-overlapping
	for i := 1; i < len(windows); i++ {
		if windows[i].Start != windows[i-1].End {
			t.Errorf("gap between %+v and %+v", windows[i-1], windows[i])
		}
	}
}

func TestDayWindowsDropsRemainder(t *testing.T) {
	windows, err := dayWindows("09:00", "10:45", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[2].End != "10:30" {
		t.Errorf("remainder not dropped, last window = %+v", windows[2])
	}
}

func TestDayWindowsShorterThanDuration(t *testing.T) {
	windows, err := dayWindows("09:00", "09:20", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 0 {
		t.Fatalf("expected no windows, got %d", len(windows))
	}
}

func TestDayWindowsInvalid(t *testing.T) {
	cases := []struct {
		start, end string
		duration   int
	}{
		{"18:00", "09:00", 30},
		{"09:00", "09:00", 30},
		{"09:00", "18:00", 0},
		{"09:00", "18:00", -15},
		{"9am", "18:00", 30},
		{"09:00", "25:00", 30},
		{"09:61", "18:00", 30},
	}
	for _, c := range cases {
		if _, err := dayWindows(c.start, c.end, c.duration); err == nil {
			t.Errorf("dayWindows(%q, %q, %d) should fail", c.start, c.end, c.duration)
		}
	}
}

func TestParseClockRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "09:05", "17:30", "23:59"} {
		m, err := parseClock(s)
		if err != nil {
			t.Fatalf("parseClock(%q): %v", s, err)
		}
		if got := formatClock(m); got != s {
			t.Errorf("formatClock(parseClock(%q)) = %q", s, got)
		}
	}
}
