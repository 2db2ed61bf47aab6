package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ClassSubjectRepository reads class-subject allotments.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// ListByClass returns the subjects allotted to a class in a session.
func (r *ClassSubjectRepository) ListByClass(ctx context.Context, sessionID, classID string) ([]models.ClassSubjectAssignment, error) {
	const query = `
SELECT cs.id, cs.session_id, cs.class_id, cs.subject_id, cs.employee_id, cs.created_at,
       s.name AS subject_name,
       e.name AS employee_name
FROM class_subjects cs
JOIN subjects s ON s.id = cs.subject_id
LEFT JOIN employees e ON e.id = cs.employee_id
WHERE cs.session_id = $1 AND cs.class_id = $2
ORDER BY s.name ASC`
	var assignments []models.ClassSubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, sessionID, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return assignments, nil
}
