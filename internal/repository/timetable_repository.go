package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

const (
	timetableColumns = `id, session_id, class_id, subject_id, employee_id, day_of_week, lecture_number, start_time, end_time, created_at, updated_at`

	timetableDetailSelect = `SELECT t.id, t.session_id, t.class_id, t.subject_id, t.employee_id, t.day_of_week, t.lecture_number, t.start_time, t.end_time, t.created_at, t.updated_at,
       s.name AS subject_name, e.name AS employee_name, e.designation, c.grade, c.section, ss.name AS session_name
FROM timetable_entries t
JOIN subjects s ON s.id = t.subject_id
JOIN employees e ON e.id = t.employee_id
JOIN classes c ON c.id = t.class_id
JOIN sessions ss ON ss.id = t.session_id`

	// Weekdays sort in calendar order, not alphabetically.
	dayOrder = `CASE t.day_of_week WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 ELSE 7 END`

	insertTimetableEntry = `INSERT INTO timetable_entries (` + timetableColumns + `) VALUES (:id, :session_id, :class_id, :subject_id, :employee_id, :day_of_week, :lecture_number, :start_time, :end_time, :created_at, :updated_at)`
	updateTimetableEntry = `UPDATE timetable_entries SET session_id = :session_id, class_id = :class_id, subject_id = :subject_id, employee_id = :employee_id, day_of_week = :day_of_week, lecture_number = :lecture_number, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`

	selectSessionTimeSlots = `SELECT lecture_number, start_time, end_time FROM session_time_slots WHERE session_id = $1 ORDER BY lecture_number`
	upsertSessionTimeSlot  = `INSERT INTO session_time_slots (session_id, lecture_number, start_time, end_time, updated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (session_id, lecture_number) DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at`
)

// TimetableRepository persists timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns entries with optional filtering and pagination.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("t.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("t.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("t.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("t.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("t.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	where := " WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"grade":          "c.grade %[1]s, " + dayOrder + " %[1]s, t.lecture_number %[1]s",
		"day_of_week":    dayOrder + " %[1]s, t.lecture_number %[1]s",
		"lecture_number": "t.lecture_number %[1]s, " + dayOrder + " %[1]s",
		"created_at":     "t.created_at %[1]s",
	}
	sortExpr, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortExpr = allowedSorts["grade"]
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", timetableDetailSelect, where, fmt.Sprintf(sortExpr, order), size, offset)
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable entries: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM timetable_entries t" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable entries: %w", err)
	}

	return entries, total, nil
}

// ListByClass returns a class's entries for a session ordered by day and lecture.
func (r *TimetableRepository) ListByClass(ctx context.Context, sessionID, classID string) ([]models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + " WHERE t.session_id = $1 AND t.class_id = $2 ORDER BY " + dayOrder + ", t.lecture_number"
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, sessionID, classID); err != nil {
		return nil, fmt.Errorf("list timetable by class: %w", err)
	}
	return entries, nil
}

// ListByTeacher returns a teacher's entries for a session ordered by day and lecture.
func (r *TimetableRepository) ListByTeacher(ctx context.Context, sessionID, employeeID string) ([]models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + " WHERE t.session_id = $1 AND t.employee_id = $2 ORDER BY " + dayOrder + ", t.lecture_number"
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, sessionID, employeeID); err != nil {
		return nil, fmt.Errorf("list timetable by teacher: %w", err)
	}
	return entries, nil
}

// ListByTeachers returns every entry of the given teachers in a session.
func (r *TimetableRepository) ListByTeachers(ctx context.Context, sessionID string, employeeIDs []string) ([]models.TimetableEntry, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries WHERE session_id = $1 AND employee_id = ANY($2)`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, sessionID, pq.Array(employeeIDs)); err != nil {
		return nil, fmt.Errorf("list timetable by teachers: %w", err)
	}
	return entries, nil
}

// FindByID loads an entry by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindBySlot loads the entry occupying a class cell.
func (r *TimetableRepository) FindBySlot(ctx context.Context, sessionID string, key timetable.SlotKey) (*models.TimetableEntry, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries WHERE session_id = $1 AND class_id = $2 AND day_of_week = $3 AND lecture_number = $4`
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, sessionID, key.ClassID, key.Day, key.LectureNumber); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindConflicts returns entries in a session that share the day and lecture.
func (r *TimetableRepository) FindConflicts(ctx context.Context, sessionID string, day timetable.Weekday, lectureNumber int) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries WHERE session_id = $1 AND day_of_week = $2 AND lecture_number = $3`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, sessionID, day, lectureNumber); err != nil {
		return nil, fmt.Errorf("find timetable conflicts: %w", err)
	}
	return entries, nil
}

// ExistsForClass reports whether a class has any entry in a session.
func (r *TimetableRepository) ExistsForClass(ctx context.Context, sessionID, classID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM timetable_entries WHERE session_id = $1 AND class_id = $2 LIMIT 1`, sessionID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check class timetable: %w", err)
	}
	return true, nil
}

// Create stores a new entry.
func (r *TimetableRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	stampNew(entry, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertTimetableEntry, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// BulkCreate inserts many entries within a transaction.
func (r *TimetableRepository) BulkCreate(ctx context.Context, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range entries {
		stampNew(&entries[i], now)
		if _, err = tx.NamedExecContext(ctx, insertTimetableEntry, &entries[i]); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create timetable: %w", err)
	}
	return nil
}

// Update modifies an entry.
func (r *TimetableRepository) Update(ctx context.Context, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, updateTimetableEntry, entry)
	if err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Upsert writes entry into its class cell, replacing whatever occupies it.
// entry.ID and CreatedAt are set from the stored row.
func (r *TimetableRepository) Upsert(ctx context.Context, entry *models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertSlot(ctx, tx, entry); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert timetable: %w", err)
	}
	return nil
}

// Move clears the source entry and writes target into its cell in one transaction.
func (r *TimetableRepository) Move(ctx context.Context, sourceID string, target *models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, sourceID); err != nil {
		return fmt.Errorf("clear source slot: %w", err)
	}
	if err = upsertSlot(ctx, tx, target); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit move timetable: %w", err)
	}
	return nil
}

func upsertSlot(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableEntry) error {
	var existing models.TimetableEntry
	err := tx.GetContext(ctx, &existing, `SELECT `+timetableColumns+` FROM timetable_entries WHERE session_id = $1 AND class_id = $2 AND day_of_week = $3 AND lecture_number = $4 FOR UPDATE`,
		entry.SessionID, entry.ClassID, entry.DayOfWeek, entry.LectureNumber)
	now := time.Now().UTC()
	switch {
	case err == nil:
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, updateTimetableEntry, entry); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		entry.ID = ""
		entry.CreatedAt = time.Time{}
		stampNew(entry, now)
		if _, err := tx.NamedExecContext(ctx, insertTimetableEntry, entry); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	default:
		return fmt.Errorf("lock slot: %w", err)
	}
	return nil
}

// DeleteMany removes entries by id and reports how many were deleted.
func (r *TimetableRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete timetable entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete timetable entries: %w", err)
	}
	return affected, nil
}

// ListTimeSlots returns the lecture times stored for a session, ordered by lecture.
func (r *TimetableRepository) ListTimeSlots(ctx context.Context, sessionID string) ([]timetable.TimeSlot, error) {
	var rows []sessionTimeSlotRow
	if err := r.db.SelectContext(ctx, &rows, selectSessionTimeSlots, sessionID); err != nil {
		return nil, fmt.Errorf("list session time slots: %w", err)
	}
	return timeSlotsOf(rows), nil
}

// UpdateTimeSlots stores new lecture times for a session and re-times its
// entries. The session row is locked first; check sees the times stored before
// this change and aborts the update by returning an error.
func (r *TimetableRepository) UpdateTimeSlots(ctx context.Context, sessionID string, slots []timetable.TimeSlot, check func(stored []timetable.TimeSlot) error) (updated int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin update time slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("lock session: %w", err)
	}
	var rows []sessionTimeSlotRow
	if err = tx.SelectContext(ctx, &rows, selectSessionTimeSlots, sessionID); err != nil {
		return 0, fmt.Errorf("list session time slots: %w", err)
	}
	if check != nil {
		if err = check(timeSlotsOf(rows)); err != nil {
			return 0, err
		}
	}

	now := time.Now().UTC()
	for _, slot := range slots {
		if _, err = tx.ExecContext(ctx, upsertSessionTimeSlot, sessionID, slot.LectureNumber, slot.StartTime, slot.EndTime, now); err != nil {
			err = fmt.Errorf("store lecture %d times: %w", slot.LectureNumber, err)
			return 0, err
		}
		res, execErr := tx.ExecContext(ctx, `UPDATE timetable_entries SET start_time = $1, end_time = $2, updated_at = $3 WHERE session_id = $4 AND lecture_number = $5`,
			slot.StartTime, slot.EndTime, now, sessionID, slot.LectureNumber)
		if execErr != nil {
			err = fmt.Errorf("update lecture %d times: %w", slot.LectureNumber, execErr)
			return 0, err
		}
		n, _ := res.RowsAffected()
		updated += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit update time slots: %w", err)
	}
	return updated, nil
}

type sessionTimeSlotRow struct {
	LectureNumber int    `db:"lecture_number"`
	StartTime     string `db:"start_time"`
	EndTime       string `db:"end_time"`
}

func timeSlotsOf(rows []sessionTimeSlotRow) []timetable.TimeSlot {
	slots := make([]timetable.TimeSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, timetable.TimeSlot{LectureNumber: row.LectureNumber, StartTime: row.StartTime, EndTime: row.EndTime})
	}
	return slots
}

func stampNew(entry *models.TimetableEntry, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}
