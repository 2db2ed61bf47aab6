package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCatalog is returned when a time slot catalog breaks its ordering rules.
var ErrInvalidCatalog = errors.New("invalid time slot catalog")

// TimeSlot is one teaching period of the school day.
type TimeSlot struct {
	LectureNumber int    `json:"lecture_number" yaml:"lecture_number"`
	StartTime     string `json:"start_time" yaml:"start_time"`
	EndTime       string `json:"end_time" yaml:"end_time"`
}

// Catalog is the ordered list of daily periods.
type Catalog []TimeSlot

var defaultCatalog = Catalog{
	{LectureNumber: 1, StartTime: "08:00", EndTime: "08:35"},
	{LectureNumber: 2, StartTime: "08:40", EndTime: "09:15"},
	{LectureNumber: 3, StartTime: "09:20", EndTime: "09:55"},
	{LectureNumber: 4, StartTime: "10:00", EndTime: "10:35"},
	{LectureNumber: 5, StartTime: "10:40", EndTime: "11:15"},
	{LectureNumber: 6, StartTime: "11:20", EndTime: "11:55"},
	{LectureNumber: 7, StartTime: "12:00", EndTime: "12:35"},
	{LectureNumber: 8, StartTime: "12:40", EndTime: "13:15"},
	{LectureNumber: 9, StartTime: "13:20", EndTime: "13:55"},
}

// DefaultCatalog returns a copy of the nine-period day used when no schedule is configured.
func DefaultCatalog() Catalog {
	return defaultCatalog.Clone()
}

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

// Lookup finds the slot for a lecture number.
func (c Catalog) Lookup(lectureNumber int) (TimeSlot, bool) {
	for _, slot := range c {
		if slot.LectureNumber == lectureNumber {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// LectureNumbers lists the lecture numbers in catalog order.
func (c Catalog) LectureNumbers() []int {
	numbers := make([]int, 0, len(c))
	for _, slot := range c {
		numbers = append(numbers, slot.LectureNumber)
	}
	return numbers
}

// Validate checks that lecture numbers start at 1 and increase, every slot has a
// well-formed HH:MM range, and consecutive slots do not overlap.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no slots", ErrInvalidCatalog)
	}
	if c[0].LectureNumber != 1 {
		return fmt.Errorf("%w: first lecture is %d, want 1", ErrInvalidCatalog, c[0].LectureNumber)
	}
	for i, slot := range c {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		if i == 0 {
			continue
		}
		prev := c[i-1]
		if slot.LectureNumber <= prev.LectureNumber {
			return fmt.Errorf("%w: lecture %d follows lecture %d", ErrInvalidCatalog, slot.LectureNumber, prev.LectureNumber)
		}
		if Minutes(prev.EndTime) > Minutes(slot.StartTime) {
			return fmt.Errorf("%w: lecture %d overlaps lecture %d", ErrInvalidCatalog, slot.LectureNumber, prev.LectureNumber)
		}
	}
	return nil
}

// Validate checks a single slot in isolation.
func (s TimeSlot) Validate() error {
	if s.LectureNumber < 1 {
		return fmt.Errorf("lecture number %d must be positive", s.LectureNumber)
	}
	if !ValidClock(s.StartTime) {
		return fmt.Errorf("lecture %d: start time %q is not HH:MM", s.LectureNumber, s.StartTime)
	}
	if !ValidClock(s.EndTime) {
		return fmt.Errorf("lecture %d: end time %q is not HH:MM", s.LectureNumber, s.EndTime)
	}
	if Minutes(s.StartTime) >= Minutes(s.EndTime) {
		return fmt.Errorf("lecture %d: start %s is not before end %s", s.LectureNumber, s.StartTime, s.EndTime)
	}
	return nil
}

// Retime lays new times for some lectures over the catalog and returns the
// result. Every lecture must already be in the catalog and appear once; the
// result must still be a valid catalog. The receiver is left untouched.
func (c Catalog) Retime(slots []TimeSlot) (Catalog, error) {
	out := c.Clone()
	index := make(map[int]int, len(out))
	for i, slot := range out {
		index[slot.LectureNumber] = i
	}
	seen := make(map[int]struct{}, len(slots))
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		i, ok := index[slot.LectureNumber]
		if !ok {
			return nil, fmt.Errorf("%w: lecture %d is not in the catalog", ErrInvalidCatalog, slot.LectureNumber)
		}
		if _, dup := seen[slot.LectureNumber]; dup {
			return nil, fmt.Errorf("%w: lecture %d listed twice", ErrInvalidCatalog, slot.LectureNumber)
		}
		seen[slot.LectureNumber] = struct{}{}
		out[i] = slot
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseCatalog reads a comma separated list of "HH:MM-HH:MM" ranges. Lecture
// numbers are assigned from 1 in list order.
func ParseCatalog(raw string) (Catalog, error) {
	parts := strings.Split(raw, ",")
	catalog := make(Catalog, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: range %q is not HH:MM-HH:MM", ErrInvalidCatalog, part)
		}
		catalog = append(catalog, TimeSlot{
			LectureNumber: len(catalog) + 1,
			StartTime:     strings.TrimSpace(bounds[0]),
			EndTime:       strings.TrimSpace(bounds[1]),
		})
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}
