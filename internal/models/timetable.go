package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// TimetableEntry is one assigned period: a teacher teaching a subject to a class
// at a given day and lecture within a session.
type TimetableEntry struct {
	ID            string            `db:"id" json:"id"`
	SessionID     string            `db:"session_id" json:"session_id"`
	ClassID       string            `db:"class_id" json:"class_id"`
	SubjectID     string            `db:"subject_id" json:"subject_id"`
	EmployeeID    string            `db:"employee_id" json:"employee_id"`
	DayOfWeek     timetable.Weekday `db:"day_of_week" json:"day_of_week"`
	LectureNumber int               `db:"lecture_number" json:"lecture_number"`
	StartTime     string            `db:"start_time" json:"start_time"`
	EndTime       string            `db:"end_time" json:"end_time"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail joins an entry with the names the views display.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectName  string `db:"subject_name" json:"subject_name"`
	EmployeeName string `db:"employee_name" json:"employee_name"`
	Designation  string `db:"designation" json:"designation"`
	Grade        string `db:"grade" json:"grade"`
	Section      string `db:"section" json:"section"`
	SessionName  string `db:"session_name" json:"session_name"`
}

// Key returns the grid key of the entry.
func (e TimetableEntry) Key() timetable.SlotKey {
	return timetable.SlotKey{Day: e.DayOfWeek, LectureNumber: e.LectureNumber, ClassID: e.ClassID}
}

// Slot converts the entry into an assigned grid cell.
func (e TimetableEntry) Slot() timetable.TimetableSlot {
	teacherID := e.EmployeeID
	subjectID := e.SubjectID
	return timetable.TimetableSlot{
		SlotID:        e.Key().ID(),
		Day:           e.DayOfWeek,
		LectureNumber: e.LectureNumber,
		ClassID:       e.ClassID,
		TeacherID:     &teacherID,
		SubjectID:     &subjectID,
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
	}
}

// TimetableFilter describes query params for listing entries.
type TimetableFilter struct {
	SessionID  string
	ClassID    string
	EmployeeID string
	SubjectID  string
	DayOfWeek  timetable.Weekday
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Conflict dimensions.
const (
	ConflictClass   = "CLASS"
	ConflictTeacher = "TEACHER"
	ConflictSlot    = "DUPLICATE_SLOT"
	ConflictExists  = "TIMETABLE_EXISTS"
)

// TimetableConflict describes an existing or requested entry that collides.
type TimetableConflict struct {
	EntryID       string            `json:"entry_id,omitempty"`
	SlotID        string            `json:"slot_id"`
	SessionID     string            `json:"session_id"`
	ClassID       string            `json:"class_id"`
	SubjectID     string            `json:"subject_id,omitempty"`
	EmployeeID    string            `json:"employee_id,omitempty"`
	DayOfWeek     timetable.Weekday `json:"day_of_week"`
	LectureNumber int               `json:"lecture_number"`
	Dimension     string            `json:"dimension"`
}

// NewTimetableConflict describes entry as colliding along dimension.
func NewTimetableConflict(entry TimetableEntry, dimension string) TimetableConflict {
	return TimetableConflict{
		EntryID:       entry.ID,
		SlotID:        entry.Key().ID(),
		SessionID:     entry.SessionID,
		ClassID:       entry.ClassID,
		SubjectID:     entry.SubjectID,
		EmployeeID:    entry.EmployeeID,
		DayOfWeek:     entry.DayOfWeek,
		LectureNumber: entry.LectureNumber,
		Dimension:     dimension,
	}
}

// TimetableConflictError is returned when an entry collides with existing ones.
type TimetableConflictError struct {
	Type     string              `json:"type"`
	Message  string              `json:"message"`
	Conflict TimetableConflict   `json:"conflict"`
	Errors   []TimetableConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *TimetableConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// ClassTimetable is the class view: entries grouped per weekday plus the period catalog.
type ClassTimetable struct {
	SessionID string                                       `json:"session_id"`
	ClassID   string                                       `json:"class_id"`
	Days      map[timetable.Weekday][]TimetableEntryDetail `json:"days"`
	TimeSlots timetable.Catalog                            `json:"time_slots"`
}

// TeacherSchedule is the teacher view with per-day and weekly totals.
type TeacherSchedule struct {
	SessionID     string                                       `json:"session_id"`
	EmployeeID    string                                       `json:"employee_id"`
	Days          map[timetable.Weekday][]TimetableEntryDetail `json:"days"`
	PerDay        map[timetable.Weekday]int                    `json:"per_day"`
	TotalLectures int                                          `json:"total_lectures"`
}

// GridCell is a grid slot annotated with display names and the backing entry.
type GridCell struct {
	timetable.TimetableSlot
	EntryID     *string `json:"entry_id,omitempty"`
	SubjectName string  `json:"subject_name,omitempty"`
	TeacherName string  `json:"teacher_name,omitempty"`
	ClassLabel  string  `json:"class_label,omitempty"`
}

// TimetableGrid is the grid rendered for one class or one teacher.
type TimetableGrid struct {
	Mode      timetable.ViewMode               `json:"mode"`
	SessionID string                           `json:"session_id"`
	OwnerID   string                           `json:"owner_id"`
	TimeSlots timetable.Catalog                `json:"time_slots"`
	Days      map[timetable.Weekday][]GridCell `json:"days"`
}
