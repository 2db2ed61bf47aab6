package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type timetableService interface {
	GetClassTimetable(ctx context.Context, sessionID, classID string) (*models.ClassTimetable, bool, error)
	GetTeacherSchedule(ctx context.Context, sessionID, employeeID string) (*models.TeacherSchedule, bool, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, *models.Pagination, error)
	GetGrid(ctx context.Context, mode timetable.ViewMode, sessionID, ownerID string) (*models.TimetableGrid, bool, error)
	CreateEntry(ctx context.Context, req service.TimetableEntryRequest) (*models.TimetableEntry, error)
	UpdateEntry(ctx context.Context, id string, req service.TimetableEntryRequest) (*models.TimetableEntry, error)
	DeleteEntries(ctx context.Context, ids []string) (*service.DeleteEntriesResult, error)
	CreateWeeklyTimetable(ctx context.Context, req service.WeeklyTimetableRequest) ([]models.TimetableEntryDetail, error)
	AssignTeacher(ctx context.Context, req service.AssignTeacherRequest) (*models.TimetableEntry, error)
	MoveTeacher(ctx context.Context, req service.MoveTeacherRequest) (*models.TimetableEntry, error)
	RemoveTeacher(ctx context.Context, id string) error
	ClearSlot(ctx context.Context, sessionID, slotID string) error
	ResolveSlot(ctx context.Context, sessionID, slotID string) (*models.GridCell, error)
	UpdateTimeSlots(ctx context.Context, req service.UpdateTimeSlotsRequest) (*service.UpdateTimeSlotsResult, error)
}

// TimetableHandler exposes the weekly timetable and its drag-and-drop grid.
type TimetableHandler struct {
	service  timetableService
	sessions activeSessionFinder
}

// NewTimetableHandler constructs a timetable handler. sessions supplies the
// default session when a request omits session_id.
func NewTimetableHandler(svc timetableService, sessions activeSessionFinder) *TimetableHandler {
	return &TimetableHandler{service: svc, sessions: sessions}
}

type deleteEntriesPayload struct {
	IDs []string `json:"ids"`
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param session_id query string false "Session (defaults to the active session)"
// @Param class_id query string false "Filter by class"
// @Param employee_id query string false "Filter by teacher"
// @Param subject_id query string false "Filter by subject"
// @Param day query string false "Filter by weekday"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.TimetableFilter{
		SessionID:  sessionID,
		ClassID:    c.Query("class_id"),
		EmployeeID: c.Query("employee_id"),
		SubjectID:  c.Query("subject_id"),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		day, ok := timetable.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw)))
			return
		}
		filter.DayOfWeek = day
	}
	filter.Page, filter.PageSize = pageParams(c)

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// ClassTimetable godoc
// @Summary Weekly timetable of a class
// @Tags Timetable
// @Produce json
// @Param id path string true "Class ID"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{id} [get]
func (h *TimetableHandler) ClassTimetable(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, hit, err := h.service.GetClassTimetable(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// TeacherSchedule godoc
// @Summary Weekly schedule of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Employee ID"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{id} [get]
func (h *TimetableHandler) TeacherSchedule(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, hit, err := h.service.GetTeacherSchedule(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, schedule, nil, middleware.ExtractMeta(c))
}

// Grid godoc
// @Summary Drag-and-drop grid for a class or a teacher
// @Tags Timetable
// @Produce json
// @Param mode query string false "class or teacher" default(class)
// @Param id query string true "Class ID or employee ID"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetable/grid [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	mode, err := timetable.ParseViewMode(c.DefaultQuery("mode", string(timetable.ViewModeClass)))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid view mode"))
		return
	}
	ownerID := strings.TrimSpace(c.Query("id"))
	if ownerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	if err := authorizeView(c, mode, ownerID); err != nil {
		response.Error(c, err)
		return
	}
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, hit, err := h.service.GetGrid(c.Request.Context(), mode, sessionID, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}

// CreateEntry godoc
// @Summary Create a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.TimetableEntryRequest true "Entry"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries [post]
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	var req service.TimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	entry, err := h.service.CreateEntry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Update a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.TimetableEntryRequest true "Entry"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries/{id} [put]
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var req service.TimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	entry, err := h.service.UpdateEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete a timetable entry
// @Tags Timetable
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.RemoveTeacher(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteEntries godoc
// @Summary Delete several timetable entries
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body deleteEntriesPayload true "Entry IDs"
// @Success 200 {object} response.Envelope
// @Router /timetable/entries/bulk-delete [post]
func (h *TimetableHandler) DeleteEntries(c *gin.Context) {
	var req deleteEntriesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.DeleteEntries(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateWeekly godoc
// @Summary Create the weekly timetable of a class
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.WeeklyTimetableRequest true "Weekly timetable"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/weekly [post]
func (h *TimetableHandler) CreateWeekly(c *gin.Context) {
	var req service.WeeklyTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sessionID, err := resolveSessionID(c, h.sessions, req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.SessionID = sessionID
	entries, err := h.service.CreateWeeklyTimetable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entries)
}

// Assign godoc
// @Summary Place a teacher into a grid cell
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.AssignTeacherRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/assign [post]
func (h *TimetableHandler) Assign(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sessionID, err := resolveSessionID(c, h.sessions, req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.SessionID = sessionID
	entry, err := h.service.AssignTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Move godoc
// @Summary Drop a dragged teacher onto a grid cell
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.MoveTeacherRequest true "Move"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/move [post]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req service.MoveTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sessionID, err := resolveSessionID(c, h.sessions, req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.SessionID = sessionID
	entry, err := h.service.MoveTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ResolveSlot godoc
// @Summary Resolve a slot id to its grid cell
// @Tags Timetable
// @Produce json
// @Param slotId path string true "Slot ID, e.g. Monday-3-7B"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots/{slotId} [get]
func (h *TimetableHandler) ResolveSlot(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	cell, err := h.service.ResolveSlot(c.Request.Context(), sessionID, c.Param("slotId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// ClearSlot godoc
// @Summary Empty a grid cell
// @Tags Timetable
// @Param slotId path string true "Slot ID, e.g. Monday-3-7B"
// @Param session_id query string false "Session (defaults to the active session)"
// @Success 204
// @Router /timetable/slots/{slotId} [delete]
func (h *TimetableHandler) ClearSlot(c *gin.Context) {
	sessionID, err := resolveSessionID(c, h.sessions, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ClearSlot(c.Request.Context(), sessionID, c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateTimeSlots godoc
// @Summary Re-time lectures of a session
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.UpdateTimeSlotsRequest true "Time slots"
// @Success 200 {object} response.Envelope
// @Router /timetable/time-slots [put]
func (h *TimetableHandler) UpdateTimeSlots(c *gin.Context) {
	var req service.UpdateTimeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	sessionID, err := resolveSessionID(c, h.sessions, req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.SessionID = sessionID
	result, err := h.service.UpdateTimeSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
