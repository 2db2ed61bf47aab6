package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type mockTimetableRepo struct {
	entries    map[string]models.TimetableEntry
	details    map[string]models.TimetableEntryDetail
	listErr    error
	moves      []string
	bulk       []models.TimetableEntry
	retimed    []timetable.TimeSlot
	stored     map[string][]timetable.TimeSlot
	upserted   *models.TimetableEntry
	lastFilter models.TimetableFilter
	nextID     int
}

func newMockTimetableRepo(entries ...models.TimetableEntry) *mockTimetableRepo {
	repo := &mockTimetableRepo{entries: map[string]models.TimetableEntry{}, details: map[string]models.TimetableEntryDetail{}}
	for _, e := range entries {
		repo.entries[e.ID] = e
	}
	return repo
}

func (m *mockTimetableRepo) detail(e models.TimetableEntry) models.TimetableEntryDetail {
	if d, ok := m.details[e.ID]; ok {
		d.TimetableEntry = e
		return d
	}
	return models.TimetableEntryDetail{TimetableEntry: e}
}

func (m *mockTimetableRepo) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.TimetableEntryDetail
	for _, e := range m.entries {
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		out = append(out, m.detail(e))
	}
	return out, len(out), nil
}

func (m *mockTimetableRepo) ListByClass(ctx context.Context, sessionID, classID string) ([]models.TimetableEntryDetail, error) {
	var out []models.TimetableEntryDetail
	for _, e := range m.entries {
		if e.SessionID == sessionID && e.ClassID == classID {
			out = append(out, m.detail(e))
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) ListByTeacher(ctx context.Context, sessionID, employeeID string) ([]models.TimetableEntryDetail, error) {
	var out []models.TimetableEntryDetail
	for _, e := range m.entries {
		if e.SessionID == sessionID && e.EmployeeID == employeeID {
			out = append(out, m.detail(e))
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) ListByTeachers(ctx context.Context, sessionID string, employeeIDs []string) ([]models.TimetableEntry, error) {
	wanted := map[string]bool{}
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	var out []models.TimetableEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID && wanted[e.EmployeeID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (m *mockTimetableRepo) FindBySlot(ctx context.Context, sessionID string, key timetable.SlotKey) (*models.TimetableEntry, error) {
	for _, e := range m.entries {
		if e.SessionID == sessionID && e.Key() == key {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimetableRepo) FindConflicts(ctx context.Context, sessionID string, day timetable.Weekday, lectureNumber int) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID && e.DayOfWeek == day && e.LectureNumber == lectureNumber {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) ExistsForClass(ctx context.Context, sessionID, classID string) (bool, error) {
	for _, e := range m.entries {
		if e.SessionID == sessionID && e.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTimetableRepo) Create(ctx context.Context, entry *models.TimetableEntry) error {
	m.nextID++
	entry.ID = "new-" + string(rune('0'+m.nextID))
	m.entries[entry.ID] = *entry
	return nil
}

func (m *mockTimetableRepo) BulkCreate(ctx context.Context, entries []models.TimetableEntry) error {
	m.bulk = append(m.bulk, entries...)
	for _, e := range entries {
		_ = m.Create(ctx, &e)
	}
	return nil
}

func (m *mockTimetableRepo) Update(ctx context.Context, entry *models.TimetableEntry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return sql.ErrNoRows
	}
	m.entries[entry.ID] = *entry
	return nil
}

func (m *mockTimetableRepo) Upsert(ctx context.Context, entry *models.TimetableEntry) error {
	if existing, err := m.FindBySlot(ctx, entry.SessionID, entry.Key()); err == nil {
		entry.ID = existing.ID
		m.entries[entry.ID] = *entry
	} else if err := m.Create(ctx, entry); err != nil {
		return err
	}
	m.upserted = entry
	return nil
}

func (m *mockTimetableRepo) Move(ctx context.Context, sourceID string, target *models.TimetableEntry) error {
	m.moves = append(m.moves, sourceID)
	delete(m.entries, sourceID)
	return m.Upsert(ctx, target)
}

func (m *mockTimetableRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.entries[id]; ok {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *mockTimetableRepo) ListTimeSlots(ctx context.Context, sessionID string) ([]timetable.TimeSlot, error) {
	return m.stored[sessionID], nil
}

func (m *mockTimetableRepo) UpdateTimeSlots(ctx context.Context, sessionID string, slots []timetable.TimeSlot, check func([]timetable.TimeSlot) error) (int64, error) {
	if check != nil {
		if err := check(m.stored[sessionID]); err != nil {
			return 0, err
		}
	}
	if m.stored == nil {
		m.stored = map[string][]timetable.TimeSlot{}
	}
	byLecture := map[int]timetable.TimeSlot{}
	for _, slot := range m.stored[sessionID] {
		byLecture[slot.LectureNumber] = slot
	}
	for _, slot := range slots {
		byLecture[slot.LectureNumber] = slot
	}
	merged := make([]timetable.TimeSlot, 0, len(byLecture))
	for _, slot := range byLecture {
		merged = append(merged, slot)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].LectureNumber < merged[j].LectureNumber })
	m.stored[sessionID] = merged
	m.retimed = slots
	var n int64
	for id, e := range m.entries {
		for _, slot := range slots {
			if e.SessionID == sessionID && e.LectureNumber == slot.LectureNumber {
				e.StartTime, e.EndTime = slot.StartTime, slot.EndTime
				m.entries[id] = e
				n++
			}
		}
	}
	return n, nil
}

type mockExistence struct {
	known map[string]bool
	err   error
}

func knownIDs(ids ...string) *mockExistence {
	m := &mockExistence{known: map[string]bool{}}
	for _, id := range ids {
		m.known[id] = true
	}
	return m
}

func (m *mockExistence) Exists(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[id], nil
}

func (m *mockExistence) CountExisting(ctx context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if m.known[id] {
			n++
		}
	}
	return n, nil
}

type recordingInvalidator struct {
	mu       sync.Mutex
	sessions []string
}

func (r *recordingInvalidator) InvalidateSession(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
}

func sampleEntry(id, classID, employeeID string, day timetable.Weekday, lecture int) models.TimetableEntry {
	slot, _ := timetable.DefaultCatalog().Lookup(lecture)
	return models.TimetableEntry{
		ID:            id,
		SessionID:     "s1",
		ClassID:       classID,
		SubjectID:     "math",
		EmployeeID:    employeeID,
		DayOfWeek:     day,
		LectureNumber: lecture,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
	}
}

func testReferences() TimetableReferences {
	return TimetableReferences{
		Classes:   knownIDs("7B", "8A"),
		Subjects:  knownIDs("math", "bio"),
		Employees: knownIDs("emp-1", "emp-2"),
		Sessions:  knownIDs("s1"),
	}
}

func newTimetableServiceForTest(repo *mockTimetableRepo) (*TimetableService, *recordingInvalidator, *MetricsService) {
	inv := &recordingInvalidator{}
	metrics := NewMetricsService()
	svc := NewTimetableService(repo, testReferences(), timetable.DefaultCatalog(), nil, inv, metrics, NewValidator(), zap.NewNop())
	return svc, inv, metrics
}

func entryRequest(classID, employeeID string, day timetable.Weekday, lecture int) TimetableEntryRequest {
	slot, _ := timetable.DefaultCatalog().Lookup(lecture)
	return TimetableEntryRequest{
		SessionID:     "s1",
		ClassID:       classID,
		SubjectID:     "math",
		EmployeeID:    employeeID,
		DayOfWeek:     day,
		LectureNumber: lecture,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
	}
}

func conflictOf(t *testing.T, err error) *models.TimetableConflictError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	var domainErr *models.TimetableConflictError
	require.True(t, errors.As(err, &domainErr))
	return domainErr
}

func TestTimetableServiceCreateEntry(t *testing.T) {
	repo := newMockTimetableRepo()
	svc, inv, _ := newTimetableServiceForTest(repo)

	entry, err := svc.CreateEntry(context.Background(), entryRequest("7B", "emp-1", timetable.Monday, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, []string{"s1"}, inv.sessions)
}

func TestTimetableServiceCreateEntryValidation(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(newMockTimetableRepo())

	cases := map[string]func(r *TimetableEntryRequest){
		"sunday":             func(r *TimetableEntryRequest) { r.DayOfWeek = "Sunday" },
		"lecture outside":    func(r *TimetableEntryRequest) { r.LectureNumber = 12 },
		"bad clock":          func(r *TimetableEntryRequest) { r.StartTime = "8am" },
		"end before start":   func(r *TimetableEntryRequest) { r.StartTime, r.EndTime = "09:00", "08:00" },
		"class id with dash": func(r *TimetableEntryRequest) { r.ClassID = "7-B" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := entryRequest("7B", "emp-1", timetable.Monday, 1)
			mutate(&req)
			_, err := svc.CreateEntry(context.Background(), req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestTimetableServiceCreateEntryMissingReference(t *testing.T) {
	svc, _, _ := newTimetableServiceForTest(newMockTimetableRepo())

	_, err := svc.CreateEntry(context.Background(), entryRequest("9C", "emp-1", timetable.Monday, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "class not found")
}

func TestTimetableServiceCreateEntryConflicts(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1))
	svc, _, metrics := newTimetableServiceForTest(repo)

	_, err := svc.CreateEntry(context.Background(), entryRequest("7B", "emp-2", timetable.Monday, 1))
	domainErr := conflictOf(t, err)
	assert.Equal(t, models.ConflictClass, domainErr.Type)
	assert.Equal(t, "e1", domainErr.Conflict.EntryID)
	assert.Equal(t, "Monday-1-7B", domainErr.Conflict.SlotID)

	_, err = svc.CreateEntry(context.Background(), entryRequest("8A", "emp-1", timetable.Monday, 1))
	domainErr = conflictOf(t, err)
	assert.Equal(t, models.ConflictTeacher, domainErr.Type)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.conflicts.WithLabelValues(models.ConflictTeacher)))
	assert.Equal(t, uint64(2), metrics.Snapshot().TimetableConflicts)
}

func TestTimetableServiceUpdateEntryIgnoresItself(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1))
	svc, _, _ := newTimetableServiceForTest(repo)

	req := entryRequest("7B", "emp-1", timetable.Monday, 1)
	req.SubjectID = "bio"
	updated, err := svc.UpdateEntry(context.Background(), "e1", req)
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, "bio", repo.entries["e1"].SubjectID)

	_, err = svc.UpdateEntry(context.Background(), "missing", req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceDeleteEntries(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1),
		sampleEntry("e2", "7B", "emp-1", timetable.Monday, 2),
	)
	svc, inv, _ := newTimetableServiceForTest(repo)

	res, err := svc.DeleteEntries(context.Background(), []string{"e1", "e2", "e1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Deleted)
	assert.Empty(t, repo.entries)
	assert.Equal(t, []string{"s1"}, inv.sessions)

	_, err = svc.DeleteEntries(context.Background(), []string{"ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.DeleteEntries(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func weeklyRequest(entries ...WeeklyEntryRequest) WeeklyTimetableRequest {
	return WeeklyTimetableRequest{SessionID: "s1", ClassID: "7B", Entries: entries}
}

func weekly(employeeID string, day timetable.Weekday, lecture int) WeeklyEntryRequest {
	slot, _ := timetable.DefaultCatalog().Lookup(lecture)
	return WeeklyEntryRequest{SubjectID: "math", EmployeeID: employeeID, DayOfWeek: day, LectureNumber: lecture, StartTime: slot.StartTime, EndTime: slot.EndTime}
}

func TestTimetableServiceCreateWeekly(t *testing.T) {
	repo := newMockTimetableRepo()
	svc, _, _ := newTimetableServiceForTest(repo)

	created, err := svc.CreateWeeklyTimetable(context.Background(), weeklyRequest(
		weekly("emp-1", timetable.Monday, 1),
		weekly("emp-2", timetable.Monday, 2),
		weekly("emp-1", timetable.Friday, 9),
	))
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Len(t, repo.bulk, 3)
}

func TestTimetableServiceCreateWeeklyRejections(t *testing.T) {
	t.Run("duplicate slot in request", func(t *testing.T) {
		svc, _, _ := newTimetableServiceForTest(newMockTimetableRepo())
		_, err := svc.CreateWeeklyTimetable(context.Background(), weeklyRequest(
			weekly("emp-1", timetable.Monday, 1),
			weekly("emp-2", timetable.Monday, 1),
		))
		domainErr := conflictOf(t, err)
		assert.Equal(t, models.ConflictSlot, domainErr.Type)
	})

	t.Run("class already has a timetable", func(t *testing.T) {
		svc, _, _ := newTimetableServiceForTest(newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1)))
		_, err := svc.CreateWeeklyTimetable(context.Background(), weeklyRequest(weekly("emp-1", timetable.Tuesday, 1)))
		domainErr := conflictOf(t, err)
		assert.Equal(t, models.ConflictExists, domainErr.Type)
	})

	t.Run("unknown teacher", func(t *testing.T) {
		svc, _, _ := newTimetableServiceForTest(newMockTimetableRepo())
		_, err := svc.CreateWeeklyTimetable(context.Background(), weeklyRequest(weekly("emp-9", timetable.Monday, 1)))
		assert.ErrorIs(t, err, appErrors.ErrNotFound)
	})

	t.Run("all teacher conflicts reported", func(t *testing.T) {
		repo := newMockTimetableRepo(
			sampleEntry("e1", "8A", "emp-1", timetable.Monday, 3),
			sampleEntry("e2", "8A", "emp-1", timetable.Wednesday, 5),
		)
		svc, _, _ := newTimetableServiceForTest(repo)
		_, err := svc.CreateWeeklyTimetable(context.Background(), weeklyRequest(
			weekly("emp-1", timetable.Monday, 3),
			weekly("emp-1", timetable.Wednesday, 5),
			weekly("emp-2", timetable.Tuesday, 2),
		))
		domainErr := conflictOf(t, err)
		assert.Equal(t, models.ConflictTeacher, domainErr.Type)
		assert.Len(t, domainErr.Errors, 2)
		assert.Contains(t, domainErr.Message, "Monday lecture 3, Wednesday lecture 5")
		assert.Empty(t, repo.bulk)
	})
}

func TestTimetableServiceAssignTeacher(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-2", timetable.Tuesday, 4))
	svc, _, _ := newTimetableServiceForTest(repo)

	entry, err := svc.AssignTeacher(context.Background(), AssignTeacherRequest{SessionID: "s1", SlotID: "Tuesday-4-7B", EmployeeID: "emp-1", SubjectID: "bio"})
	require.NoError(t, err)
	assert.Equal(t, "e1", entry.ID)
	assert.Equal(t, "emp-1", repo.entries["e1"].EmployeeID)
	assert.Equal(t, "10:00", entry.StartTime)
	assert.Equal(t, "10:35", entry.EndTime)
}

func TestTimetableServiceAssignTeacherBusyElsewhere(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "8A", "emp-1", timetable.Tuesday, 4))
	svc, _, _ := newTimetableServiceForTest(repo)

	_, err := svc.AssignTeacher(context.Background(), AssignTeacherRequest{SessionID: "s1", SlotID: "Tuesday-4-7B", EmployeeID: "emp-1", SubjectID: "math"})
	domainErr := conflictOf(t, err)
	assert.Equal(t, "Tuesday-4-8A", domainErr.Conflict.SlotID)
}

func TestTimetableServiceMalformedSlot(t *testing.T) {
	svc, _, metrics := newTimetableServiceForTest(newMockTimetableRepo())

	_, err := svc.AssignTeacher(context.Background(), AssignTeacherRequest{SessionID: "s1", SlotID: "Funday-1-7B", EmployeeID: "emp-1", SubjectID: "math"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrMalformedSlotID)
	assert.ErrorIs(t, err, timetable.ErrMalformedSlotID)

	err = svc.ClearSlot(context.Background(), "s1", "Monday-x-7B")
	assert.ErrorIs(t, err, appErrors.ErrMalformedSlotID)
	assert.Equal(t, uint64(2), metrics.Snapshot().SlotDecodeFailures)
}

func TestTimetableServiceMoveTeacher(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1))
	svc, _, _ := newTimetableServiceForTest(repo)

	source := "Monday-1-7B"
	moved, err := svc.MoveTeacher(context.Background(), MoveTeacherRequest{
		SessionID:  "s1",
		TargetSlot: "Thursday-2-7B",
		Teacher: timetable.DraggedTeacher{
			Teacher:    timetable.Teacher{EmployeeID: "emp-1", EmployeeName: "A. Rahman"},
			SourceSlot: &source,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, repo.moves)
	assert.Equal(t, "math", moved.SubjectID)
	assert.Equal(t, "Thursday-2-7B", moved.Key().ID())
	_, err = repo.FindBySlot(context.Background(), "s1", timetable.SlotKey{Day: timetable.Monday, LectureNumber: 1, ClassID: "7B"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTimetableServiceMoveTeacherRejectsWrongSource(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-2", timetable.Monday, 1))
	svc, _, _ := newTimetableServiceForTest(repo)

	source := "Monday-1-7B"
	_, err := svc.MoveTeacher(context.Background(), MoveTeacherRequest{
		SessionID:  "s1",
		TargetSlot: "Monday-2-7B",
		Teacher:    timetable.DraggedTeacher{Teacher: timetable.Teacher{EmployeeID: "emp-1"}, SourceSlot: &source},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.moves)
}

func TestTimetableServiceMoveFromRosterAssigns(t *testing.T) {
	repo := newMockTimetableRepo()
	svc, _, _ := newTimetableServiceForTest(repo)

	entry, err := svc.MoveTeacher(context.Background(), MoveTeacherRequest{
		SessionID:  "s1",
		TargetSlot: "Saturday-9-8A",
		SubjectID:  "bio",
		Teacher:    timetable.DraggedTeacher{Teacher: timetable.Teacher{EmployeeID: "emp-2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Saturday-9-8A", entry.Key().ID())
	assert.Empty(t, repo.moves)
}

func TestTimetableServiceRemoveAndClear(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1),
		sampleEntry("e2", "7B", "emp-1", timetable.Monday, 2),
	)
	svc, _, _ := newTimetableServiceForTest(repo)

	require.NoError(t, svc.RemoveTeacher(context.Background(), "e1"))
	assert.ErrorIs(t, svc.RemoveTeacher(context.Background(), "e1"), appErrors.ErrNotFound)

	require.NoError(t, svc.ClearSlot(context.Background(), "s1", "Monday-2-7B"))
	require.NoError(t, svc.ClearSlot(context.Background(), "s1", "Monday-2-7B"))
	assert.Empty(t, repo.entries)
}

func TestTimetableServiceResolveSlot(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1))
	repo.details["e1"] = models.TimetableEntryDetail{SubjectName: "Math", EmployeeName: "A. Rahman", Grade: "7", Section: "B"}
	svc, _, _ := newTimetableServiceForTest(repo)

	cell, err := svc.ResolveSlot(context.Background(), "s1", "Monday-1-7B")
	require.NoError(t, err)
	require.NotNil(t, cell.EntryID)
	assert.Equal(t, "e1", *cell.EntryID)
	assert.Equal(t, "A. Rahman", cell.TeacherName)
	assert.Equal(t, "7 B", cell.ClassLabel)

	empty, err := svc.ResolveSlot(context.Background(), "s1", "Friday-3-7B")
	require.NoError(t, err)
	assert.False(t, empty.Assigned())
	assert.Equal(t, "09:20", empty.StartTime)

	_, err = svc.ResolveSlot(context.Background(), "s1", "Monday-0-7B")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTimetableServiceGetClassTimetable(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e2", "7B", "emp-1", timetable.Monday, 3),
		sampleEntry("e1", "7B", "emp-2", timetable.Monday, 1),
		sampleEntry("e3", "8A", "emp-2", timetable.Monday, 2),
	)
	svc, _, _ := newTimetableServiceForTest(repo)

	view, hit, err := svc.GetClassTimetable(context.Background(), "s1", "7B")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, view.Days, 6)
	require.Len(t, view.Days[timetable.Monday], 2)
	assert.Equal(t, "e1", view.Days[timetable.Monday][0].ID)
	assert.Empty(t, view.Days[timetable.Saturday])
	assert.Len(t, view.TimeSlots, 9)
}

func TestTimetableServiceGetTeacherSchedule(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1),
		sampleEntry("e2", "8A", "emp-1", timetable.Monday, 2),
		sampleEntry("e3", "8A", "emp-1", timetable.Thursday, 5),
	)
	svc, _, _ := newTimetableServiceForTest(repo)

	view, _, err := svc.GetTeacherSchedule(context.Background(), "s1", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalLectures)
	assert.Equal(t, 2, view.PerDay[timetable.Monday])
	assert.Equal(t, 0, view.PerDay[timetable.Friday])

	_, _, err = svc.GetTeacherSchedule(context.Background(), "s1", "emp-404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceGetGrid(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e1", "7B", "emp-1", timetable.Tuesday, 2),
		sampleEntry("e2", "8A", "emp-1", timetable.Tuesday, 1),
	)
	svc, _, _ := newTimetableServiceForTest(repo)

	grid, _, err := svc.GetGrid(context.Background(), timetable.ViewModeClass, "s1", "7B")
	require.NoError(t, err)
	for _, day := range timetable.DaysOfWeek() {
		assert.Len(t, grid.Days[day], 9, day)
	}
	assigned := grid.Days[timetable.Tuesday][1]
	assert.True(t, assigned.Assigned())
	assert.Equal(t, "Tuesday-2-7B", assigned.SlotID)

	teacherGrid, _, err := svc.GetGrid(context.Background(), timetable.ViewModeTeacher, "s1", "emp-1")
	require.NoError(t, err)
	require.Len(t, teacherGrid.Days[timetable.Tuesday], 2)
	assert.Equal(t, "8A", teacherGrid.Days[timetable.Tuesday][0].ClassID)
	assert.Empty(t, teacherGrid.Days[timetable.Monday])

	_, _, err = svc.GetGrid(context.Background(), "room", "s1", "7B")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTimetableServiceList(t *testing.T) {
	repo := newMockTimetableRepo(sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1))
	svc, _, _ := newTimetableServiceForTest(repo)

	entries, page, err := svc.List(context.Background(), models.TimetableFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	_, _, err = svc.List(context.Background(), models.TimetableFilter{PageSize: 500})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.listErr = errors.New("db down")
	_, _, err = svc.List(context.Background(), models.TimetableFilter{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestTimetableServiceUpdateTimeSlots(t *testing.T) {
	repo := newMockTimetableRepo(
		sampleEntry("e1", "7B", "emp-1", timetable.Monday, 1),
		sampleEntry("e2", "8A", "emp-2", timetable.Friday, 1),
	)
	svc, inv, _ := newTimetableServiceForTest(repo)

	res, err := svc.UpdateTimeSlots(context.Background(), UpdateTimeSlotsRequest{
		SessionID: "s1",
		TimeSlots: []timetable.TimeSlot{{LectureNumber: 1, StartTime: "07:45", EndTime: "08:30"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Updated)
	assert.Equal(t, "07:45", repo.entries["e2"].StartTime)
	assert.Equal(t, []string{"s1"}, inv.sessions)

	cases := map[string][]timetable.TimeSlot{
		"unknown lecture": {{LectureNumber: 12, StartTime: "15:00", EndTime: "15:30"}},
		"overlaps next":   {{LectureNumber: 1, StartTime: "08:00", EndTime: "08:50"}},
		"listed twice":    {{LectureNumber: 2, StartTime: "08:40", EndTime: "09:15"}, {LectureNumber: 2, StartTime: "08:40", EndTime: "09:15"}},
		"inverted":        {{LectureNumber: 1, StartTime: "08:30", EndTime: "08:00"}},
	}
	for name, slots := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateTimeSlots(context.Background(), UpdateTimeSlotsRequest{SessionID: "s1", TimeSlots: slots})
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestTimetableServiceUpdateTimeSlotsChecksSessionTimes(t *testing.T) {
	repo := newMockTimetableRepo()
	svc, _, _ := newTimetableServiceForTest(repo)
	ctx := context.Background()

	_, err := svc.UpdateTimeSlots(ctx, UpdateTimeSlotsRequest{
		SessionID: "s1",
		TimeSlots: []timetable.TimeSlot{{LectureNumber: 1, StartTime: "08:00", EndTime: "08:39"}},
	})
	require.NoError(t, err)

	// fits the configured catalog but overlaps the stored lecture 1
	_, err = svc.UpdateTimeSlots(ctx, UpdateTimeSlotsRequest{
		SessionID: "s1",
		TimeSlots: []timetable.TimeSlot{{LectureNumber: 2, StartTime: "08:36", EndTime: "09:15"}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	catalog, err := svc.SessionCatalog(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, catalog.Validate())
	assert.Equal(t, "08:39", catalog[0].EndTime)
	assert.Equal(t, "08:40", catalog[1].StartTime)
	assert.Equal(t, "08:00", svc.Catalog()[0].StartTime)
}

func TestTimetableServiceRetimedSessionDrivesCells(t *testing.T) {
	repo := newMockTimetableRepo()
	svc, _, _ := newTimetableServiceForTest(repo)
	ctx := context.Background()

	res, err := svc.UpdateTimeSlots(ctx, UpdateTimeSlotsRequest{
		SessionID: "s1",
		TimeSlots: []timetable.TimeSlot{{LectureNumber: 3, StartTime: "09:30", EndTime: "10:00"}},
	})
	require.NoError(t, err)
	require.Len(t, res.TimeSlots, 9)
	assert.Equal(t, "09:30", res.TimeSlots[2].StartTime)

	entry, err := svc.AssignTeacher(ctx, AssignTeacherRequest{SessionID: "s1", SlotID: "Tuesday-3-7B", EmployeeID: "emp-1", SubjectID: "math"})
	require.NoError(t, err)
	assert.Equal(t, "09:30", entry.StartTime)
	assert.Equal(t, "10:00", entry.EndTime)

	empty, err := svc.ResolveSlot(ctx, "s1", "Friday-3-7B")
	require.NoError(t, err)
	assert.Equal(t, "09:30", empty.StartTime)

	grid, _, err := svc.GetGrid(ctx, timetable.ViewModeClass, "s1", "7B")
	require.NoError(t, err)
	period, ok := grid.TimeSlots.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "09:30", period.StartTime)
	assert.Equal(t, "09:30", grid.Days[timetable.Friday][2].StartTime)
}

func TestTimetableServiceGridReadAfterAssign(t *testing.T) {
	ctx := context.Background()
	repo := newMockTimetableRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCache(), metrics, time.Minute, zap.NewNop(), true)
	inv := NewCacheInvalidator(cache, jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	inv.Start(ctx)
	defer inv.Stop()
	svc := NewTimetableService(repo, testReferences(), timetable.DefaultCatalog(), cache, inv, metrics, NewValidator(), zap.NewNop())

	_, hit, err := svc.GetGrid(ctx, timetable.ViewModeClass, "s1", "7B")
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.GetGrid(ctx, timetable.ViewModeClass, "s1", "7B")
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = svc.AssignTeacher(ctx, AssignTeacherRequest{SessionID: "s1", SlotID: "Monday-1-7B", EmployeeID: "emp-1", SubjectID: "math"})
	require.NoError(t, err)

	grid, hit, err := svc.GetGrid(ctx, timetable.ViewModeClass, "s1", "7B")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, grid.Days[timetable.Monday][0].Assigned())
}
