// Package schedule holds the pure rules of the weekly timetable: clock and day parsing,
// week boundaries, leave overlap and the nested teacher/day projection.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidClock is returned when a session time cannot be parsed.
var ErrInvalidClock = errors.New("invalid session time")

const minutesPerDay = 24 * 60

// ParseClock converts "2:00 PM", "2 pm", "02:00pm" or "14:00" into minutes after midnight.
func ParseClock(value string) (int, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		return 0, ErrInvalidClock
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(raw, "am"):
		meridiem = "am"
	case strings.HasSuffix(raw, "pm"):
		meridiem = "pm"
	}
	if meridiem != "" {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, meridiem))
	}

	hourPart, minutePart := raw, "0"
	if idx := strings.Index(raw, ":"); idx >= 0 {
		hourPart, minutePart = raw[:idx], raw[idx+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	if meridiem == "" {
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
		}
		return hour*60 + minute, nil
	}

	if hour < 1 || hour > 12 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour %= 12
	if meridiem == "pm" {
		hour += 12
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes after midnight in the 12-hour display form, e.g. "2:00 PM".
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	hour, minute := minutes/60, minutes%60

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// EndClock returns the display end time of a session starting at start and lasting hours.
func EndClock(start int, hours float64) string {
	return FormatClock(start + int(math.Round(hours*60)))
}

// SlotKey derives the legacy positional identifier of a session, e.g. "saturday-alice-1400".
func SlotKey(day Day, teacher string, minutes int) string {
	name := strings.Join(strings.Fields(strings.ToLower(teacher)), "_")
	return fmt.Sprintf("%s-%s-%02d%02d", strings.ToLower(string(day)), name, minutes/60, minutes%60)
}
