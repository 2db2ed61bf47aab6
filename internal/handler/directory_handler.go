package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type directoryService interface {
	ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error)
	GetClass(ctx context.Context, id string) (*models.Class, error)
	ListEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ActiveSession(ctx context.Context) (*models.Session, error)
	ListClassSubjects(ctx context.Context, sessionID, classID string) ([]models.ClassSubjectAssignment, error)
}

// DirectoryHandler serves the read-only lookups the timetable editor needs.
type DirectoryHandler struct {
	service directoryService
}

// NewDirectoryHandler constructs a directory handler.
func NewDirectoryHandler(svc directoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// ListClasses godoc
// @Summary List classes
// @Tags Directory
// @Produce json
// @Param grade query string false "Filter by grade"
// @Param search query string false "Search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *DirectoryHandler) ListClasses(c *gin.Context) {
	filter := models.ClassFilter{
		Grade:     c.Query("grade"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	classes, pagination, err := h.service.ListClasses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// GetClass godoc
// @Summary Get class
// @Tags Directory
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *DirectoryHandler) GetClass(c *gin.Context) {
	class, err := h.service.GetClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// ListClassSubjects godoc
// @Summary Subjects allotted to a class
// @Tags Directory
// @Produce json
// @Param id path string true "Class ID"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *DirectoryHandler) ListClassSubjects(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.service, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.ListClassSubjects(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ListEmployees godoc
// @Summary List employees
// @Tags Directory
// @Produce json
// @Param search query string false "Search"
// @Param designation query string false "Filter by designation"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *DirectoryHandler) ListEmployees(c *gin.Context) {
	filter := models.EmployeeFilter{
		Search:      c.Query("search"),
		Designation: c.Query("designation"),
		SortBy:      c.Query("sort"),
		SortOrder:   c.Query("order"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	filter.Page, filter.PageSize = pageParams(c)
	employees, pagination, err := h.service.ListEmployees(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// GetEmployee godoc
// @Summary Get employee
// @Tags Directory
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *DirectoryHandler) GetEmployee(c *gin.Context) {
	employee, err := h.service.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Directory
// @Produce json
// @Param search query string false "Search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *DirectoryHandler) ListSubjects(c *gin.Context) {
	filter := models.SubjectFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	subjects, pagination, err := h.service.ListSubjects(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// ListSessions godoc
// @Summary List academic sessions
// @Tags Directory
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *DirectoryHandler) ListSessions(c *gin.Context) {
	filter := models.SessionFilter{
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	filter.Page, filter.PageSize = pageParams(c)
	sessions, pagination, err := h.service.ListSessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// ActiveSession godoc
// @Summary Currently active session
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions/active [get]
func (h *DirectoryHandler) ActiveSession(c *gin.Context) {
	session, err := h.service.ActiveSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// GetSession godoc
// @Summary Get session
// @Tags Directory
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *DirectoryHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
