package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// Class represents a grade/section pair. Its id is a short code that also
// appears inside slot ids, so it never contains "-".
type Class struct {
	ID        string    `db:"id" json:"id"`
	Grade     string    `db:"grade" json:"grade"`
	Section   string    `db:"section" json:"section"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Label renders the class for display, e.g. "7 B".
func (c Class) Label() string {
	if c.Section == "" {
		return c.Grade
	}
	return c.Grade + " " + c.Section
}

// Grid returns the grid view of the class.
func (c Class) Grid() timetable.Class {
	return timetable.Class{ClassID: c.ID, Grade: c.Grade, Section: c.Section}
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Grade     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassSubject allots a subject, and optionally its teacher, to a class for a session.
type ClassSubject struct {
	ID         string    `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	EmployeeID *string   `db:"employee_id" json:"employee_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ClassSubjectAssignment is a view that includes subject and teacher names.
type ClassSubjectAssignment struct {
	ClassSubject
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}
