package timetable

import (
	"fmt"
	"sort"
)

// ViewMode selects the primary axis of the weekly grid.
type ViewMode string

const (
	ViewModeClass   ViewMode = "class"
	ViewModeTeacher ViewMode = "teacher"
)

// ParseViewMode accepts "class" or "teacher".
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(raw) {
	case ViewModeClass, ViewModeTeacher:
		return ViewMode(raw), nil
	default:
		return "", fmt.Errorf("unknown view mode %q", raw)
	}
}

// Teacher is an assignable employee as seen by the grid.
type Teacher struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Designation  string  `json:"designation"`
	Education    *string `json:"education,omitempty"`
}

// Class is a grade/section pair.
type Class struct {
	ClassID string `json:"class_id"`
	Grade   string `json:"grade"`
	Section string `json:"section"`
}

// Subject is a taught subject.
type Subject struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
}

// TimetableSlot is a grid cell. Nil TeacherID/SubjectID marks an unassigned period.
type TimetableSlot struct {
	SlotID        string  `json:"slot_id"`
	Day           Weekday `json:"day"`
	LectureNumber int     `json:"lecture_number"`
	ClassID       string  `json:"class_id"`
	TeacherID     *string `json:"teacher_id"`
	SubjectID     *string `json:"subject_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
}

// DraggedTeacher carries a teacher being moved on the grid. SourceSlot is set when
// the drag started from an occupied cell rather than from the roster.
type DraggedTeacher struct {
	Teacher
	SourceSlot *string `json:"source_slot,omitempty"`
}

// Key returns the structured key of the slot.
func (s TimetableSlot) Key() SlotKey {
	return SlotKey{Day: s.Day, LectureNumber: s.LectureNumber, ClassID: s.ClassID}
}

// Assigned reports whether a teacher occupies the slot.
func (s TimetableSlot) Assigned() bool {
	return s.TeacherID != nil
}

// NewSlot builds an empty cell for key, taking its times from the catalog.
func NewSlot(key SlotKey, catalog Catalog) (TimetableSlot, error) {
	if err := key.Validate(); err != nil {
		return TimetableSlot{}, err
	}
	period, ok := catalog.Lookup(key.LectureNumber)
	if !ok {
		return TimetableSlot{}, fmt.Errorf("%w: lecture %d is not in the catalog", ErrInvalidSlotKey, key.LectureNumber)
	}
	return TimetableSlot{
		SlotID:        key.ID(),
		Day:           key.Day,
		LectureNumber: key.LectureNumber,
		ClassID:       key.ClassID,
		StartTime:     period.StartTime,
		EndTime:       period.EndTime,
	}, nil
}

// FillClassGrid returns every day x lecture cell for a class, ordered by day then
// lecture. Cells present in assigned replace the empty ones; assigned entries for
// other classes or outside the catalog are ignored.
func FillClassGrid(classID string, catalog Catalog, assigned []TimetableSlot) ([]TimetableSlot, error) {
	byKey := make(map[SlotKey]TimetableSlot, len(assigned))
	for _, slot := range assigned {
		if slot.ClassID != classID {
			continue
		}
		slot.SlotID = slot.Key().ID()
		byKey[slot.Key()] = slot
	}

	grid := make([]TimetableSlot, 0, len(daysOfWeek)*len(catalog))
	for _, day := range daysOfWeek {
		for _, period := range catalog {
			key := SlotKey{Day: day, LectureNumber: period.LectureNumber, ClassID: classID}
			if slot, ok := byKey[key]; ok {
				grid = append(grid, slot)
				continue
			}
			cell, err := NewSlot(key, catalog)
			if err != nil {
				return nil, err
			}
			grid = append(grid, cell)
		}
	}
	return grid, nil
}

// GroupByDay buckets slots per weekday, each bucket sorted by lecture. Every
// weekday is present in the result, even when empty.
func GroupByDay(slots []TimetableSlot) map[Weekday][]TimetableSlot {
	grouped := make(map[Weekday][]TimetableSlot, len(daysOfWeek))
	for _, day := range daysOfWeek {
		grouped[day] = []TimetableSlot{}
	}
	for _, slot := range slots {
		if _, ok := grouped[slot.Day]; !ok {
			continue
		}
		grouped[slot.Day] = append(grouped[slot.Day], slot)
	}
	for day := range grouped {
		bucket := grouped[day]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].LectureNumber < bucket[j].LectureNumber
		})
	}
	return grouped
}

// SortSlots orders slots by day, lecture, then class.
func SortSlots(slots []TimetableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		if a.LectureNumber != b.LectureNumber {
			return a.LectureNumber < b.LectureNumber
		}
		return a.ClassID < b.ClassID
	})
}
