package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, int, error)
	ListByClass(ctx context.Context, sessionID, classID string) ([]models.TimetableEntryDetail, error)
	ListByTeacher(ctx context.Context, sessionID, employeeID string) ([]models.TimetableEntryDetail, error)
	ListByTeachers(ctx context.Context, sessionID string, employeeIDs []string) ([]models.TimetableEntry, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	FindBySlot(ctx context.Context, sessionID string, key timetable.SlotKey) (*models.TimetableEntry, error)
	FindConflicts(ctx context.Context, sessionID string, day timetable.Weekday, lectureNumber int) ([]models.TimetableEntry, error)
	ExistsForClass(ctx context.Context, sessionID, classID string) (bool, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	BulkCreate(ctx context.Context, entries []models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) error
	Upsert(ctx context.Context, entry *models.TimetableEntry) error
	Move(ctx context.Context, sourceID string, target *models.TimetableEntry) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	ListTimeSlots(ctx context.Context, sessionID string) ([]timetable.TimeSlot, error)
	UpdateTimeSlots(ctx context.Context, sessionID string, slots []timetable.TimeSlot, check func(stored []timetable.TimeSlot) error) (int64, error)
}

type existenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type bulkExistenceChecker interface {
	existenceChecker
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type sessionInvalidator interface {
	InvalidateSession(ctx context.Context, sessionID string)
}

// TimetableReferences resolves the ids an entry points at.
type TimetableReferences struct {
	Classes   existenceChecker
	Subjects  bulkExistenceChecker
	Employees bulkExistenceChecker
	Sessions  existenceChecker
}

// TimetableEntryRequest is the payload for creating or updating a single entry.
type TimetableEntryRequest struct {
	SessionID     string            `json:"session_id" validate:"required"`
	ClassID       string            `json:"class_id" validate:"required,classid"`
	SubjectID     string            `json:"subject_id" validate:"required"`
	EmployeeID    string            `json:"employee_id" validate:"required"`
	DayOfWeek     timetable.Weekday `json:"day_of_week" validate:"required,weekday"`
	LectureNumber int               `json:"lecture_number" validate:"required,min=1"`
	StartTime     string            `json:"start_time" validate:"required,hhmm"`
	EndTime       string            `json:"end_time" validate:"required,hhmm"`
}

// WeeklyEntryRequest is one period of a weekly timetable.
type WeeklyEntryRequest struct {
	SubjectID     string            `json:"subject_id" validate:"required"`
	EmployeeID    string            `json:"employee_id" validate:"required"`
	DayOfWeek     timetable.Weekday `json:"day_of_week" validate:"required,weekday"`
	LectureNumber int               `json:"lecture_number" validate:"required,min=1"`
	StartTime     string            `json:"start_time" validate:"required,hhmm"`
	EndTime       string            `json:"end_time" validate:"required,hhmm"`
}

// WeeklyTimetableRequest creates the whole week of a class at once.
type WeeklyTimetableRequest struct {
	SessionID string               `json:"session_id" validate:"required"`
	ClassID   string               `json:"class_id" validate:"required,classid"`
	Entries   []WeeklyEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// AssignTeacherRequest places a teacher and subject into a grid cell.
type AssignTeacherRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	SlotID     string `json:"slot_id" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"required"`
	SubjectID  string `json:"subject_id" validate:"required"`
}

// MoveTeacherRequest drops a dragged teacher onto a grid cell. SubjectID may be
// omitted when the drag started from an occupied cell; the source subject is kept.
type MoveTeacherRequest struct {
	SessionID  string                   `json:"session_id" validate:"required"`
	TargetSlot string                   `json:"target_slot" validate:"required"`
	Teacher    timetable.DraggedTeacher `json:"teacher"`
	SubjectID  string                   `json:"subject_id"`
}

// UpdateTimeSlotsRequest re-times lectures of a session.
type UpdateTimeSlotsRequest struct {
	SessionID string               `json:"session_id" validate:"required"`
	TimeSlots []timetable.TimeSlot `json:"time_slots" validate:"required,min=1"`
}

// DeleteEntriesResult reports how many entries a bulk delete removed.
type DeleteEntriesResult struct {
	Deleted int64 `json:"deleted"`
}

// UpdateTimeSlotsResult reports how many entries were re-timed and the
// session's times after the change.
type UpdateTimeSlotsResult struct {
	Updated   int64                `json:"updated"`
	TimeSlots []timetable.TimeSlot `json:"time_slots"`
}

// TimetableService owns the weekly timetable: views, entry writes and grid edits.
type TimetableService struct {
	repo        timetableRepository
	refs        TimetableReferences
	catalog     timetable.Catalog
	cache       *CacheService
	invalidator sessionInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTimetableService wires the service. An empty catalog falls back to the default one.
func NewTimetableService(repo timetableRepository, refs TimetableReferences, catalog timetable.Catalog, cache *CacheService, invalidator sessionInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if len(catalog) == 0 {
		catalog = timetable.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:        repo,
		refs:        refs,
		catalog:     catalog.Clone(),
		cache:       cache,
		invalidator: invalidator,
		metrics:     metrics,
		validator:   ensureValidator(validate),
		logger:      logger,
	}
}

// Catalog returns a copy of the configured period catalog.
func (s *TimetableService) Catalog() timetable.Catalog {
	return s.catalog.Clone()
}

// SessionCatalog returns the configured catalog with the session's stored
// re-timings applied.
func (s *TimetableService) SessionCatalog(ctx context.Context, sessionID string) (timetable.Catalog, error) {
	stored, err := s.repo.ListTimeSlots(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session time slots")
	}
	return s.retimed(sessionID, stored), nil
}

// retimed skips stored lectures the configured catalog no longer has and falls
// back to the configured times when the rest no longer fit.
func (s *TimetableService) retimed(sessionID string, stored []timetable.TimeSlot) timetable.Catalog {
	known := make([]timetable.TimeSlot, 0, len(stored))
	for _, slot := range stored {
		if _, ok := s.catalog.Lookup(slot.LectureNumber); ok {
			known = append(known, slot)
		}
	}
	catalog, err := s.catalog.Retime(known)
	if err != nil {
		s.logger.Warn("stored session times do not fit the catalog",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return s.Catalog()
	}
	return catalog
}

// GetClassTimetable returns a class's entries grouped per weekday. The boolean
// reports a cache hit.
func (s *TimetableService) GetClassTimetable(ctx context.Context, sessionID, classID string) (*models.ClassTimetable, bool, error) {
	cacheKey := ClassViewKey(sessionID, classID)
	var cached models.ClassTimetable
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	if err := s.ensureReferences(ctx, references{sessionID: sessionID, classID: classID}); err != nil {
		return nil, false, err
	}
	entries, err := s.repo.ListByClass(ctx, sessionID, classID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}
	catalog, err := s.SessionCatalog(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	view := &models.ClassTimetable{
		SessionID: sessionID,
		ClassID:   classID,
		Days:      groupDetails(entries),
		TimeSlots: catalog,
	}
	_ = s.cache.Set(ctx, cacheKey, view, 0)
	return view, false, nil
}

// GetTeacherSchedule returns a teacher's week with per-day and weekly lecture counts.
func (s *TimetableService) GetTeacherSchedule(ctx context.Context, sessionID, employeeID string) (*models.TeacherSchedule, bool, error) {
	cacheKey := TeacherViewKey(sessionID, employeeID)
	var cached models.TeacherSchedule
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	if err := s.ensureReferences(ctx, references{sessionID: sessionID, employeeID: employeeID}); err != nil {
		return nil, false, err
	}
	entries, err := s.repo.ListByTeacher(ctx, sessionID, employeeID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedule")
	}

	days := groupDetails(entries)
	perDay := make(map[timetable.Weekday]int, len(days))
	for day, items := range days {
		perDay[day] = len(items)
	}
	view := &models.TeacherSchedule{
		SessionID:     sessionID,
		EmployeeID:    employeeID,
		Days:          days,
		PerDay:        perDay,
		TotalLectures: len(entries),
	}
	_ = s.cache.Set(ctx, cacheKey, view, 0)
	return view, false, nil
}

// List returns paged entries ordered by grade, day and lecture unless a sort is given.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, *models.Pagination, error) {
	if filter.DayOfWeek != "" && !filter.DayOfWeek.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be Monday to Saturday")
	}
	if filter.PageSize > 100 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "page_size must be at most 100")
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetGrid renders the weekly grid for a class (every cell, empty ones included)
// or for a teacher (only the periods they teach).
func (s *TimetableService) GetGrid(ctx context.Context, mode timetable.ViewMode, sessionID, ownerID string) (*models.TimetableGrid, bool, error) {
	if _, err := timetable.ParseViewMode(string(mode)); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "view mode must be class or teacher")
	}
	cacheKey := GridKey(mode, sessionID, ownerID)
	var cached models.TimetableGrid
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	var (
		grid *models.TimetableGrid
		err  error
	)
	switch mode {
	case timetable.ViewModeClass:
		grid, err = s.classGrid(ctx, sessionID, ownerID)
	default:
		grid, err = s.teacherGrid(ctx, sessionID, ownerID)
	}
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, cacheKey, grid, 0)
	return grid, false, nil
}

func (s *TimetableService) classGrid(ctx context.Context, sessionID, classID string) (*models.TimetableGrid, error) {
	if err := s.ensureReferences(ctx, references{sessionID: sessionID, classID: classID}); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByClass(ctx, sessionID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}

	byKey := make(map[timetable.SlotKey]models.TimetableEntryDetail, len(entries))
	assigned := make([]timetable.TimetableSlot, 0, len(entries))
	for _, entry := range entries {
		byKey[entry.Key()] = entry
		assigned = append(assigned, entry.Slot())
	}
	catalog, err := s.SessionCatalog(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cells, err := timetable.FillClassGrid(classID, catalog, assigned)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build class grid")
	}

	grid := newGrid(timetable.ViewModeClass, sessionID, classID, catalog)
	for _, cell := range cells {
		gridCell := models.GridCell{TimetableSlot: cell}
		if entry, ok := byKey[cell.Key()]; ok {
			gridCell = detailCell(entry)
		}
		grid.Days[cell.Day] = append(grid.Days[cell.Day], gridCell)
	}
	return grid, nil
}

func (s *TimetableService) teacherGrid(ctx context.Context, sessionID, employeeID string) (*models.TimetableGrid, error) {
	if err := s.ensureReferences(ctx, references{sessionID: sessionID, employeeID: employeeID}); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByTeacher(ctx, sessionID, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedule")
	}

	byKey := make(map[timetable.SlotKey]models.TimetableEntryDetail, len(entries))
	slots := make([]timetable.TimetableSlot, 0, len(entries))
	for _, entry := range entries {
		byKey[entry.Key()] = entry
		slots = append(slots, entry.Slot())
	}

	catalog, err := s.SessionCatalog(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	grid := newGrid(timetable.ViewModeTeacher, sessionID, employeeID, catalog)
	for day, daySlots := range timetable.GroupByDay(slots) {
		for _, slot := range daySlots {
			grid.Days[day] = append(grid.Days[day], detailCell(byKey[slot.Key()]))
		}
	}
	return grid, nil
}

// CreateEntry stores a single entry after reference and conflict checks.
func (s *TimetableService) CreateEntry(ctx context.Context, req TimetableEntryRequest) (*models.TimetableEntry, error) {
	entry, err := s.entryFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, referencesOf(entry)); err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(ctx, entry, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entry")
	}
	s.invalidate(ctx, entry.SessionID)
	s.logger.Info("timetable entry created", zap.String("entry_id", entry.ID), zap.String("slot_id", entry.Key().ID()))
	return &entry, nil
}

// UpdateEntry replaces an entry. The entry itself never counts as a conflict.
func (s *TimetableService) UpdateEntry(ctx context.Context, id string, req TimetableEntryRequest) (*models.TimetableEntry, error) {
	updated, err := s.entryFromRequest(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "timetable entry not found", "failed to load timetable entry")
	}
	if err := s.ensureReferences(ctx, referencesOf(updated)); err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(ctx, updated, existing.ID); err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
	}
	s.invalidate(ctx, existing.SessionID)
	if updated.SessionID != existing.SessionID {
		s.invalidate(ctx, updated.SessionID)
	}
	return &updated, nil
}

// DeleteEntries removes entries by id. Unknown ids are ignored; at least one
// entry must have existed.
func (s *TimetableService) DeleteEntries(ctx context.Context, ids []string) (*DeleteEntriesResult, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one entry id is required")
	}

	sessions := make(map[string]struct{})
	for _, id := range ids {
		entry, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
		}
		sessions[entry.SessionID] = struct{}{}
	}
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable entries found")
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entries")
	}
	for sessionID := range sessions {
		s.invalidate(ctx, sessionID)
	}
	return &DeleteEntriesResult{Deleted: deleted}, nil
}

// CreateWeeklyTimetable creates a class's full week in one transaction. A class
// that already has entries in the session is refused; every teacher clash is
// reported at once.
func (s *TimetableService) CreateWeeklyTimetable(ctx context.Context, req WeeklyTimetableRequest) ([]models.TimetableEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly timetable payload")
	}

	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	seen := make(map[timetable.SlotKey]struct{}, len(req.Entries))
	var duplicates []models.TimetableConflict
	for _, item := range req.Entries {
		entry := models.TimetableEntry{
			SessionID:     req.SessionID,
			ClassID:       req.ClassID,
			SubjectID:     item.SubjectID,
			EmployeeID:    item.EmployeeID,
			DayOfWeek:     item.DayOfWeek,
			LectureNumber: item.LectureNumber,
			StartTime:     item.StartTime,
			EndTime:       item.EndTime,
		}
		if err := s.checkPeriod(entry); err != nil {
			return nil, err
		}
		if _, dup := seen[entry.Key()]; dup {
			duplicates = append(duplicates, models.NewTimetableConflict(entry, models.ConflictSlot))
			continue
		}
		seen[entry.Key()] = struct{}{}
		entries = append(entries, entry)
	}
	if len(duplicates) > 0 {
		return nil, s.conflictList(models.ConflictSlot, "duplicate slots in request at: "+describeSlots(duplicates), duplicates)
	}

	if err := s.ensureReferences(ctx, references{sessionID: req.SessionID, classID: req.ClassID}); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsForClass(ctx, req.SessionID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class timetable")
	}
	if exists {
		conflict := models.TimetableConflict{SessionID: req.SessionID, ClassID: req.ClassID, Dimension: models.ConflictExists}
		return nil, s.conflict(conflict, "timetable already exists for this class and session, use update instead")
	}

	subjectIDs := make([]string, 0, len(entries))
	employeeIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		subjectIDs = append(subjectIDs, entry.SubjectID)
		employeeIDs = append(employeeIDs, entry.EmployeeID)
	}
	if err := s.ensureAllExist(ctx, uniqueStrings(subjectIDs), uniqueStrings(employeeIDs)); err != nil {
		return nil, err
	}

	busy, err := s.repo.ListByTeachers(ctx, req.SessionID, uniqueStrings(employeeIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher conflicts")
	}
	type teacherSlot struct {
		employeeID string
		day        timetable.Weekday
		lecture    int
	}
	taken := make(map[teacherSlot]models.TimetableEntry, len(busy))
	for _, entry := range busy {
		taken[teacherSlot{entry.EmployeeID, entry.DayOfWeek, entry.LectureNumber}] = entry
	}
	var clashes []models.TimetableConflict
	for _, entry := range entries {
		if existing, ok := taken[teacherSlot{entry.EmployeeID, entry.DayOfWeek, entry.LectureNumber}]; ok {
			clashes = append(clashes, models.NewTimetableConflict(existing, models.ConflictTeacher))
		}
	}
	if len(clashes) > 0 {
		return nil, s.conflictList(models.ConflictTeacher, "teacher conflicts found at: "+describeSlots(clashes), clashes)
	}

	if err := s.repo.BulkCreate(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weekly timetable")
	}
	s.invalidate(ctx, req.SessionID)
	s.logger.Info("weekly timetable created",
		zap.String("session_id", req.SessionID),
		zap.String("class_id", req.ClassID),
		zap.Int("entries", len(entries)),
	)

	created, err := s.repo.ListByClass(ctx, req.SessionID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created timetable")
	}
	return created, nil
}

// AssignTeacher writes a teacher and subject into a cell, replacing any occupant.
// Times come from the session's catalog.
func (s *TimetableService) AssignTeacher(ctx context.Context, req AssignTeacherRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	key, err := s.decodeSlot(req.SlotID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.SessionCatalog(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	entry, err := s.entryForCell(catalog, req.SessionID, key, req.EmployeeID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, referencesOf(entry)); err != nil {
		return nil, err
	}
	if err := s.ensureTeacherFree(ctx, entry, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	s.invalidate(ctx, entry.SessionID)
	return &entry, nil
}

// MoveTeacher drops a dragged teacher onto a cell. A drag from an occupied cell
// clears the source and fills the target atomically; a drag from the roster is an
// assignment.
func (s *TimetableService) MoveTeacher(ctx context.Context, req MoveTeacherRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	if req.Teacher.EmployeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dragged teacher has no employee id")
	}
	if req.Teacher.SourceSlot == nil || *req.Teacher.SourceSlot == "" {
		return s.AssignTeacher(ctx, AssignTeacherRequest{
			SessionID:  req.SessionID,
			SlotID:     req.TargetSlot,
			EmployeeID: req.Teacher.EmployeeID,
			SubjectID:  req.SubjectID,
		})
	}

	sourceKey, err := s.decodeSlot(*req.Teacher.SourceSlot)
	if err != nil {
		return nil, err
	}
	targetKey, err := s.decodeSlot(req.TargetSlot)
	if err != nil {
		return nil, err
	}

	source, err := s.repo.FindBySlot(ctx, req.SessionID, sourceKey)
	if err != nil {
		return nil, notFoundOr(err, "source slot is empty", "failed to load source slot")
	}
	if source.EmployeeID != req.Teacher.EmployeeID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dragged teacher does not occupy the source slot")
	}
	if sourceKey == targetKey {
		return source, nil
	}

	subjectID := req.SubjectID
	if subjectID == "" {
		subjectID = source.SubjectID
	}
	catalog, err := s.SessionCatalog(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	target, err := s.entryForCell(catalog, req.SessionID, targetKey, source.EmployeeID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, referencesOf(target)); err != nil {
		return nil, err
	}
	if err := s.ensureTeacherFree(ctx, target, source.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Move(ctx, source.ID, &target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move teacher")
	}
	s.invalidate(ctx, req.SessionID)
	s.logger.Info("teacher moved",
		zap.String("employee_id", source.EmployeeID),
		zap.String("from", sourceKey.ID()),
		zap.String("to", targetKey.ID()),
	)
	return &target, nil
}

// RemoveTeacher clears the cell held by the given entry.
func (s *TimetableService) RemoveTeacher(ctx context.Context, id string) error {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "timetable entry not found", "failed to load timetable entry")
	}
	if _, err := s.repo.DeleteMany(ctx, []string{entry.ID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove teacher")
	}
	s.invalidate(ctx, entry.SessionID)
	return nil
}

// ClearSlot empties a cell addressed by slot id. Clearing an empty cell is a no-op.
func (s *TimetableService) ClearSlot(ctx context.Context, sessionID, slotID string) error {
	key, err := s.decodeSlot(slotID)
	if err != nil {
		return err
	}
	entry, err := s.repo.FindBySlot(ctx, sessionID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if _, err := s.repo.DeleteMany(ctx, []string{entry.ID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear slot")
	}
	s.invalidate(ctx, sessionID)
	return nil
}

// ResolveSlot decodes a slot id and returns its cell, assigned or empty.
func (s *TimetableService) ResolveSlot(ctx context.Context, sessionID, slotID string) (*models.GridCell, error) {
	key, err := s.decodeSlot(slotID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.SessionCatalog(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	empty, err := timetable.NewSlot(key, catalog)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("lecture %d is not in the catalog", key.LectureNumber))
	}

	entries, err := s.repo.ListByClass(ctx, sessionID, key.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	for _, entry := range entries {
		if entry.Key() == key {
			cell := detailCell(entry)
			return &cell, nil
		}
	}
	return &models.GridCell{TimetableSlot: empty}, nil
}

// UpdateTimeSlots re-times every entry of a session per lecture. The new times,
// laid over the session's current times, must still form a valid catalog.
func (s *TimetableService) UpdateTimeSlots(ctx context.Context, req UpdateTimeSlotsRequest) (*UpdateTimeSlotsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slots payload")
	}
	seen := make(map[int]struct{}, len(req.TimeSlots))
	for _, slot := range req.TimeSlots {
		if err := slot.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid time slot for lecture %d", slot.LectureNumber))
		}
		if _, ok := s.catalog.Lookup(slot.LectureNumber); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecture %d is not in the catalog", slot.LectureNumber))
		}
		if _, dup := seen[slot.LectureNumber]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecture %d listed twice", slot.LectureNumber))
		}
		seen[slot.LectureNumber] = struct{}{}
	}
	if err := s.ensureReferences(ctx, references{sessionID: req.SessionID}); err != nil {
		return nil, err
	}

	var effective timetable.Catalog
	updated, err := s.repo.UpdateTimeSlots(ctx, req.SessionID, req.TimeSlots, func(stored []timetable.TimeSlot) error {
		next, err := s.retimed(req.SessionID, stored).Retime(req.TimeSlots)
		if err != nil {
			return err
		}
		effective = next
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, timetable.ErrInvalidCatalog):
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "time slots overlap")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time slots")
	}
	s.invalidate(ctx, req.SessionID)
	return &UpdateTimeSlotsResult{Updated: updated, TimeSlots: effective}, nil
}

func (s *TimetableService) entryFromRequest(req TimetableEntryRequest) (models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.TimetableEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable entry payload")
	}
	entry := models.TimetableEntry{
		SessionID:     req.SessionID,
		ClassID:       req.ClassID,
		SubjectID:     req.SubjectID,
		EmployeeID:    req.EmployeeID,
		DayOfWeek:     req.DayOfWeek,
		LectureNumber: req.LectureNumber,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
	if err := s.checkPeriod(entry); err != nil {
		return models.TimetableEntry{}, err
	}
	return entry, nil
}

// checkPeriod enforces a catalog lecture and a non-empty time range.
func (s *TimetableService) checkPeriod(entry models.TimetableEntry) error {
	if _, ok := s.catalog.Lookup(entry.LectureNumber); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecture %d is not in the catalog", entry.LectureNumber))
	}
	period := timetable.TimeSlot{LectureNumber: entry.LectureNumber, StartTime: entry.StartTime, EndTime: entry.EndTime}
	if err := period.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_time must be before end_time")
	}
	return nil
}

func (s *TimetableService) entryForCell(catalog timetable.Catalog, sessionID string, key timetable.SlotKey, employeeID, subjectID string) (models.TimetableEntry, error) {
	if subjectID == "" {
		return models.TimetableEntry{}, appErrors.Clone(appErrors.ErrValidation, "subject_id is required")
	}
	period, ok := catalog.Lookup(key.LectureNumber)
	if !ok {
		return models.TimetableEntry{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecture %d is not in the catalog", key.LectureNumber))
	}
	return models.TimetableEntry{
		SessionID:     sessionID,
		ClassID:       key.ClassID,
		SubjectID:     subjectID,
		EmployeeID:    employeeID,
		DayOfWeek:     key.Day,
		LectureNumber: key.LectureNumber,
		StartTime:     period.StartTime,
		EndTime:       period.EndTime,
	}, nil
}

func (s *TimetableService) decodeSlot(slotID string) (timetable.SlotKey, error) {
	key, err := timetable.DecodeSlotID(slotID)
	if err != nil {
		s.metrics.RecordSlotDecodeFailure()
		return timetable.SlotKey{}, appErrors.Wrap(err, appErrors.ErrMalformedSlotID.Code, appErrors.ErrMalformedSlotID.Status, fmt.Sprintf("slot id %q is not decodable", slotID))
	}
	return key, nil
}

type references struct {
	sessionID  string
	classID    string
	subjectID  string
	employeeID string
}

func referencesOf(entry models.TimetableEntry) references {
	return references{sessionID: entry.SessionID, classID: entry.ClassID, subjectID: entry.SubjectID, employeeID: entry.EmployeeID}
}

// ensureReferences checks the non-empty ids concurrently; the first missing one wins.
func (s *TimetableService) ensureReferences(ctx context.Context, refs references) error {
	g, gctx := errgroup.WithContext(ctx)
	check := func(repo existenceChecker, id, what string) {
		if id == "" || repo == nil {
			return
		}
		g.Go(func() error {
			ok, err := repo.Exists(gctx, id)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
			}
			if !ok {
				return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
			}
			return nil
		})
	}
	check(s.refs.Sessions, refs.sessionID, "session")
	check(s.refs.Classes, refs.classID, "class")
	check(s.refs.Subjects, refs.subjectID, "subject")
	check(s.refs.Employees, refs.employeeID, "teacher")
	return g.Wait()
}

func (s *TimetableService) ensureAllExist(ctx context.Context, subjectIDs, employeeIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	count := func(repo bulkExistenceChecker, ids []string, what string) {
		g.Go(func() error {
			n, err := repo.CountExisting(gctx, ids)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
			}
			if n != len(ids) {
				return appErrors.Clone(appErrors.ErrNotFound, "one or more "+what+" not found")
			}
			return nil
		})
	}
	count(s.refs.Subjects, subjectIDs, "subjects")
	count(s.refs.Employees, employeeIDs, "teachers")
	return g.Wait()
}

func (s *TimetableService) ensureNoConflict(ctx context.Context, entry models.TimetableEntry, ignoreID string) error {
	existing, err := s.repo.FindConflicts(ctx, entry.SessionID, entry.DayOfWeek, entry.LectureNumber)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check timetable conflicts")
	}
	for _, item := range existing {
		if item.ID == ignoreID {
			continue
		}
		if item.ClassID == entry.ClassID {
			return s.conflict(models.NewTimetableConflict(item, models.ConflictClass), "class already has a lecture in this slot")
		}
		if item.EmployeeID == entry.EmployeeID {
			return s.conflict(models.NewTimetableConflict(item, models.ConflictTeacher), "teacher already teaching in this slot")
		}
	}
	return nil
}

// ensureTeacherFree ignores the target cell itself, whose occupant is replaced.
func (s *TimetableService) ensureTeacherFree(ctx context.Context, entry models.TimetableEntry, ignoreID string) error {
	existing, err := s.repo.FindConflicts(ctx, entry.SessionID, entry.DayOfWeek, entry.LectureNumber)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check timetable conflicts")
	}
	for _, item := range existing {
		if item.ID == ignoreID || item.ClassID == entry.ClassID {
			continue
		}
		if item.EmployeeID == entry.EmployeeID {
			return s.conflict(models.NewTimetableConflict(item, models.ConflictTeacher), "teacher already teaching in this slot")
		}
	}
	return nil
}

func (s *TimetableService) conflict(conflict models.TimetableConflict, message string) error {
	s.metrics.RecordConflict(conflict.Dimension)
	domainErr := &models.TimetableConflictError{Type: conflict.Dimension, Message: message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("timetable conflict: %s", message))
}

func (s *TimetableService) conflictList(dimension, message string, conflicts []models.TimetableConflict) error {
	s.metrics.RecordConflict(dimension)
	domainErr := &models.TimetableConflictError{Type: dimension, Message: message, Conflict: conflicts[0], Errors: conflicts}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("timetable conflict: %s", message))
}

func (s *TimetableService) invalidate(ctx context.Context, sessionID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateSession(ctx, sessionID)
	}
}

func groupDetails(entries []models.TimetableEntryDetail) map[timetable.Weekday][]models.TimetableEntryDetail {
	days := make(map[timetable.Weekday][]models.TimetableEntryDetail, len(timetable.DaysOfWeek()))
	for _, day := range timetable.DaysOfWeek() {
		days[day] = []models.TimetableEntryDetail{}
	}
	for _, entry := range entries {
		if _, ok := days[entry.DayOfWeek]; !ok {
			continue
		}
		days[entry.DayOfWeek] = append(days[entry.DayOfWeek], entry)
	}
	for day := range days {
		items := days[day]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].LectureNumber < items[j].LectureNumber
		})
	}
	return days
}

func newGrid(mode timetable.ViewMode, sessionID, ownerID string, catalog timetable.Catalog) *models.TimetableGrid {
	grid := &models.TimetableGrid{
		Mode:      mode,
		SessionID: sessionID,
		OwnerID:   ownerID,
		TimeSlots: catalog,
		Days:      make(map[timetable.Weekday][]models.GridCell, len(timetable.DaysOfWeek())),
	}
	for _, day := range timetable.DaysOfWeek() {
		grid.Days[day] = []models.GridCell{}
	}
	return grid
}

func detailCell(entry models.TimetableEntryDetail) models.GridCell {
	id := entry.ID
	return models.GridCell{
		TimetableSlot: entry.Slot(),
		EntryID:       &id,
		SubjectName:   entry.SubjectName,
		TeacherName:   entry.EmployeeName,
		ClassLabel:    strings.TrimSpace(entry.Grade + " " + entry.Section),
	}
}

func describeSlots(conflicts []models.TimetableConflict) string {
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("%s lecture %d", c.DayOfWeek, c.LectureNumber))
	}
	return strings.Join(parts, ", ")
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
