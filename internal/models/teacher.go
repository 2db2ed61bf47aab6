package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// Employee is a staff record; teaching employees are assignable to periods.
type Employee struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Designation string    `db:"designation" json:"designation"`
	Education   *string   `db:"education" json:"education,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Teacher returns the grid view of the employee.
func (e Employee) Teacher() timetable.Teacher {
	return timetable.Teacher{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		Designation:  e.Designation,
		Education:    e.Education,
	}
}

// EmployeeFilter captures filtering options for listing employees.
type EmployeeFilter struct {
	Search      string
	Designation string
	Active      *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
