package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type directoryServiceMock struct {
	classFilter    models.ClassFilter
	employeeFilter models.EmployeeFilter
	sessionFilter  models.SessionFilter
	classSession   string
	active         *models.Session
	err            error
}

func (m *directoryServiceMock) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	m.classFilter = filter
	return []models.Class{{ID: "7B", Grade: "7", Section: "B"}}, models.NewPagination(filter.Page, filter.PageSize, 1), m.err
}

func (m *directoryServiceMock) GetClass(ctx context.Context, id string) (*models.Class, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Class{ID: id}, nil
}

func (m *directoryServiceMock) ListEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	m.employeeFilter = filter
	return []models.Employee{}, models.NewPagination(filter.Page, filter.PageSize, 0), m.err
}

func (m *directoryServiceMock) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Employee{ID: id}, nil
}

func (m *directoryServiceMock) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	return []models.Subject{}, models.NewPagination(filter.Page, filter.PageSize, 0), m.err
}

func (m *directoryServiceMock) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	m.sessionFilter = filter
	return []models.Session{}, models.NewPagination(filter.Page, filter.PageSize, 0), m.err
}

func (m *directoryServiceMock) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return &models.Session{ID: id}, m.err
}

func (m *directoryServiceMock) ActiveSession(ctx context.Context) (*models.Session, error) {
	if m.active == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active session")
	}
	return m.active, nil
}

func (m *directoryServiceMock) ListClassSubjects(ctx context.Context, sessionID, classID string) ([]models.ClassSubjectAssignment, error) {
	m.classSession = sessionID
	return []models.ClassSubjectAssignment{}, m.err
}

func TestDirectoryHandlerListClasses(t *testing.T) {
	svc := &directoryServiceMock{}
	handler := NewDirectoryHandler(svc)

	c, w := newTestContext(http.MethodGet, "/classes?grade=7&limit=5", "")
	handler.ListClasses(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", svc.classFilter.Grade)
	assert.Equal(t, 5, svc.classFilter.PageSize)
}

func TestDirectoryHandlerListEmployeesActiveFlag(t *testing.T) {
	svc := &directoryServiceMock{}
	handler := NewDirectoryHandler(svc)

	c, w := newTestContext(http.MethodGet, "/employees?active=true&designation=Teacher", "")
	handler.ListEmployees(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.employeeFilter.Active)
	assert.True(t, *svc.employeeFilter.Active)
	assert.Equal(t, "Teacher", svc.employeeFilter.Designation)
}

func TestDirectoryHandlerGetClassNotFound(t *testing.T) {
	handler := NewDirectoryHandler(&directoryServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "class not found")})

	c, w := newTestContext(http.MethodGet, "/classes/9Z", "")
	c.Params = gin.Params{{Key: "id", Value: "9Z"}}
	handler.GetClass(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDirectoryHandlerClassSubjectsDefaultsToActiveSession(t *testing.T) {
	svc := &directoryServiceMock{active: &models.Session{ID: "2026"}}
	handler := NewDirectoryHandler(svc)

	c, w := newTestContext(http.MethodGet, "/classes/7B/subjects", "")
	c.Params = gin.Params{{Key: "id", Value: "7B"}}
	handler.ListClassSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026", svc.classSession)
}

func TestDirectoryHandlerActiveSessionMissing(t *testing.T) {
	handler := NewDirectoryHandler(&directoryServiceMock{})

	c, w := newTestContext(http.MethodGet, "/sessions/active", "")
	handler.ActiveSession(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
