package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// Subject represents an academic subject.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Grid returns the grid view of the subject.
func (s Subject) Grid() timetable.Subject {
	return timetable.Subject{SubjectID: s.ID, SubjectName: s.Name}
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
