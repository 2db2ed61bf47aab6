package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type exportService interface {
	Render(ctx context.Context, req service.ExportRequest) (*service.ExportFile, error)
	Publish(ctx context.Context, req service.ExportRequest) (*service.ExportResult, error)
	Open(token string) (*os.File, storage.SignedRef, error)
}

// ExportHandler renders timetable grids as CSV or PDF files.
type ExportHandler struct {
	service  exportService
	sessions activeSessionFinder
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService, sessions activeSessionFinder) *ExportHandler {
	return &ExportHandler{service: svc, sessions: sessions}
}

type publishExportPayload struct {
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
	OwnerID   string `json:"id"`
	Format    string `json:"format"`
}

// Download godoc
// @Summary Download the timetable grid as a file
// @Tags Exports
// @Produce octet-stream
// @Param mode query string false "class or teacher" default(class)
// @Param id query string true "Class ID or employee ID"
// @Param session_id query string false "Session (defaults to the active session)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /timetable/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	req, err := h.buildRequest(c, publishExportPayload{
		Mode:    c.Query("mode"),
		OwnerID: c.Query("id"),
		Format:  c.DefaultQuery("format", string(service.ExportFormatCSV)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Publish godoc
// @Summary Store a timetable export behind a signed link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body publishExportPayload true "Export request"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetable/exports [post]
func (h *ExportHandler) Publish(c *gin.Context) {
	var payload publishExportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if payload.Format == "" {
		payload.Format = string(service.ExportFormatCSV)
	}
	req, err := h.buildRequest(c, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Fetch godoc
// @Summary Download a stored export via its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ExportHandler) Fetch(c *gin.Context) {
	file, ref, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	filename := filepath.Base(ref.Path)
	contentType := service.ExportFormatCSV.ContentType()
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		contentType = service.ExportFormatPDF.ContentType()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

func (h *ExportHandler) buildRequest(c *gin.Context, payload publishExportPayload) (service.ExportRequest, error) {
	mode := timetable.ViewModeClass
	if raw := strings.TrimSpace(payload.Mode); raw != "" {
		parsed, err := timetable.ParseViewMode(raw)
		if err != nil {
			return service.ExportRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid view mode")
		}
		mode = parsed
	}
	ownerID := strings.TrimSpace(payload.OwnerID)
	if ownerID == "" {
		return service.ExportRequest{}, appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	if err := authorizeView(c, mode, ownerID); err != nil {
		return service.ExportRequest{}, err
	}
	format, err := service.ParseExportFormat(payload.Format)
	if err != nil {
		return service.ExportRequest{}, err
	}
	sessionID, err := resolveSessionID(c, h.sessions, payload.SessionID)
	if err != nil {
		return service.ExportRequest{}, err
	}
	return service.ExportRequest{Mode: mode, SessionID: sessionID, OwnerID: ownerID, Format: format}, nil
}
