package schedule

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDay is returned for unknown day-of-week keys.
var ErrInvalidDay = errors.New("invalid day of week")

// Day is a day-of-week key of the weekly schedule.
type Day string

// Days of the academy week, which starts on Saturday.
const (
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
)

// Week lists the days in academy order.
var Week = []Day{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayToDay = map[time.Weekday]Day{
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
}

// NormalizeDay parses a day key case-insensitively.
func NormalizeDay(value string) (Day, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, day := range Week {
		if strings.ToLower(string(day)) == needle {
			return day, nil
		}
	}
	return "", ErrInvalidDay
}

// DayOf returns the schedule day for a calendar date.
func DayOf(t time.Time) Day {
	return weekdayToDay[t.Weekday()]
}

// Index returns the position of the day in academy order, Saturday being 0.
func (d Day) Index() int {
	for i, day := range Week {
		if day == d {
			return i
		}
	}
	return len(Week)
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart shifts a date back to the preceding Saturday. Saturdays map to themselves.
func WeekStart(t time.Time) time.Time {
	d := Date(t)
	back := (int(d.Weekday()) + 1) % 7
	return d.AddDate(0, 0, -back)
}

// WeekKey formats the week start of t as YYYY-MM-DD.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(DateLayout)
}

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"
