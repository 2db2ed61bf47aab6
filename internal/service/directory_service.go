package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type classReader interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type employeeReader interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type subjectReader interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type sessionReader interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindActive(ctx context.Context) (*models.Session, error)
}

type classSubjectReader interface {
	ListByClass(ctx context.Context, sessionID, classID string) ([]models.ClassSubjectAssignment, error)
}

// DirectoryRepositories bundles the read models the directory exposes.
type DirectoryRepositories struct {
	Classes       classReader
	Employees     employeeReader
	Subjects      subjectReader
	Sessions      sessionReader
	ClassSubjects classSubjectReader
}

// DirectoryService answers the read-only lookups the timetable screens need.
type DirectoryService struct {
	repos  DirectoryRepositories
	logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(repos DirectoryRepositories, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repos: repos, logger: logger}
}

// ListClasses returns classes with pagination metadata.
func (s *DirectoryService) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repos.Classes.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetClass returns a class by id.
func (s *DirectoryService) GetClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repos.Classes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	return class, nil
}

// ListEmployees returns the teacher roster.
func (s *DirectoryService) ListEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repos.Employees.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetEmployee returns an employee by id.
func (s *DirectoryService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repos.Employees.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee not found", "failed to load employee")
	}
	return employee, nil
}

// ListSubjects returns subjects with pagination metadata.
func (s *DirectoryService) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repos.Subjects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListSessions returns academic sessions.
func (s *DirectoryService) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repos.Sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetSession returns a session by id.
func (s *DirectoryService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repos.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "session not found", "failed to load session")
	}
	return session, nil
}

// ActiveSession returns the session currently flagged active.
func (s *DirectoryService) ActiveSession(ctx context.Context) (*models.Session, error) {
	session, err := s.repos.Sessions.FindActive(ctx)
	if err != nil {
		return nil, notFoundOr(err, "no active session", "failed to load active session")
	}
	return session, nil
}

// ListClassSubjects returns the subjects allotted to a class in a session.
func (s *DirectoryService) ListClassSubjects(ctx context.Context, sessionID, classID string) ([]models.ClassSubjectAssignment, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	items, err := s.repos.ClassSubjects.ListByClass(ctx, sessionID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	return items, nil
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
