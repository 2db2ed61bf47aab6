package timetable

import "strings"

// Weekday names a school operating day.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

var daysOfWeek = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DaysOfWeek returns the six operating days in calendar order.
func DaysOfWeek() []Weekday {
	days := make([]Weekday, len(daysOfWeek))
	copy(days, daysOfWeek[:])
	return days
}

// ParseWeekday matches a day name case-insensitively and returns its canonical form.
func ParseWeekday(raw string) (Weekday, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, day := range daysOfWeek {
		if strings.EqualFold(trimmed, string(day)) {
			return day, true
		}
	}
	return "", false
}

// Valid reports whether d is one of the canonical day names.
func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

// Index returns the zero-based position of d within the week, or -1.
func (d Weekday) Index() int {
	for i, day := range daysOfWeek {
		if day == d {
			return i
		}
	}
	return -1
}

func (d Weekday) String() string {
	return string(d)
}
