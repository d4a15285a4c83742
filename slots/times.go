package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// window is one generated slot interval within a day.
type window struct {
	Start string
	End   string
}

// parseClock converts "09:30" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// dayWindows partitions a working-hours window into consecutive
// intervals of duration minutes. A trailing remainder shorter than one
// duration is dropped.
func dayWindows(start, end string, duration int) ([]window, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", duration)
	}
	from, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	if to <= from {
		return nil, fmt.Errorf("working hours end %q not after start %q", end, start)
	}

	var out []window
	for t := from; t+duration <= to; t += duration {
		out = append(out, window{Start: formatClock(t), End: formatClock(t + duration)})
	}
	return out, nil
}
