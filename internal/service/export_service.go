package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// ExportFormat is the file type of a rendered timetable.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat accepts csv or pdf, case-insensitively.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

type gridSource interface {
	GetGrid(ctx context.Context, mode timetable.ViewMode, sessionID, ownerID string) (*models.TimetableGrid, bool, error)
}

type exportDirectory interface {
	GetClass(ctx context.Context, id string) (*models.Class, error)
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportRequest selects the grid to render.
type ExportRequest struct {
	Mode      timetable.ViewMode
	SessionID string
	OwnerID   string
	Format    ExportFormat
}

// ExportFile is a rendered timetable ready to be sent or stored.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportResult describes a stored export and its signed download link.
type ExportResult struct {
	ExportID     string       `json:"export_id"`
	Filename     string       `json:"filename"`
	RelativePath string       `json:"-"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Format       ExportFormat `json:"format"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// ExportService renders timetable grids to CSV or PDF and keeps stored copies
// behind signed download links.
type ExportService struct {
	grids     gridSource
	directory exportDirectory
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(grids gridSource, directory exportDirectory, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		grids:     grids,
		directory: directory,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Render builds the grid and renders it in the requested format.
func (s *ExportService) Render(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	if req.Mode == "" {
		req.Mode = timetable.ViewModeClass
	}
	if _, err := ParseExportFormat(string(req.Format)); err != nil {
		return nil, err
	}
	grid, _, err := s.grids.GetGrid(ctx, req.Mode, req.SessionID, req.OwnerID)
	if err != nil {
		return nil, err
	}
	title, subtitle, err := s.titles(ctx, req)
	if err != nil {
		return nil, err
	}

	dataset := gridDataset(grid)
	var body []byte
	switch req.Format {
	case ExportFormatPDF:
		body, err = s.pdf.Render(dataset, export.PDFOptions{Title: title, Subtitle: subtitle, Landscape: true, LeadColumnWidth: 32})
	default:
		body, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	s.metrics.RecordExport(string(req.Format))

	return &ExportFile{
		Filename:    buildFilename(req),
		ContentType: req.Format.ContentType(),
		Body:        body,
	}, nil
}

// Publish renders the export, stores it and returns a signed download link.
func (s *ExportService) Publish(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export storage is not configured")
	}
	file, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	relPath, err := s.storage.Save(exportID+"/"+file.Filename, file.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable export")
	}
	token, expiresAt, err := s.signer.Sign(exportID, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("timetable export stored",
		zap.String("export_id", exportID),
		zap.String("path", relPath),
		zap.Time("expires_at", expiresAt),
	)
	return &ExportResult{
		ExportID:     exportID,
		Filename:     file.Filename,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       req.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open verifies a download token and opens the stored file.
func (s *ExportService) Open(token string) (*os.File, storage.SignedRef, error) {
	if s.storage == nil || s.signer == nil {
		return nil, storage.SignedRef{}, appErrors.Clone(appErrors.ErrUnavailable, "export storage is not configured")
	}
	ref, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, storage.SignedRef{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link expired")
		}
		return nil, storage.SignedRef{}, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid export link")
	}
	file, err := s.storage.Open(ref.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.SignedRef{}, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, storage.SignedRef{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, ref, nil
}

// Cleanup removes stored exports older than ttl (the configured lifetime when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *ExportService) titles(ctx context.Context, req ExportRequest) (string, string, error) {
	title := "Timetable " + req.OwnerID
	subtitle := "Session " + req.SessionID
	if s.directory == nil {
		return title, subtitle, nil
	}
	if req.Mode == timetable.ViewModeTeacher {
		employee, err := s.directory.GetEmployee(ctx, req.OwnerID)
		if err != nil {
			return "", "", err
		}
		title = "Teacher Timetable - " + employee.Name
	} else {
		class, err := s.directory.GetClass(ctx, req.OwnerID)
		if err != nil {
			return "", "", err
		}
		title = "Class Timetable - " + class.Label()
	}
	session, err := s.directory.GetSession(ctx, req.SessionID)
	if err != nil {
		return "", "", err
	}
	return title, "Session " + session.Name, nil
}

// gridDataset lays the grid out with one row per lecture and one column per weekday.
func gridDataset(grid *models.TimetableGrid) export.Dataset {
	headers := []string{"Lecture"}
	for _, day := range timetable.DaysOfWeek() {
		headers = append(headers, day.String())
	}

	cells := make(map[timetable.Weekday]map[int]models.GridCell, len(grid.Days))
	for day, dayCells := range grid.Days {
		byLecture := make(map[int]models.GridCell, len(dayCells))
		for _, cell := range dayCells {
			byLecture[cell.LectureNumber] = cell
		}
		cells[day] = byLecture
	}

	rows := make([]map[string]string, 0, len(grid.TimeSlots))
	for _, period := range grid.TimeSlots {
		row := map[string]string{
			"Lecture": fmt.Sprintf("%d (%s-%s)", period.LectureNumber, period.StartTime, period.EndTime),
		}
		for _, day := range timetable.DaysOfWeek() {
			cell, ok := cells[day][period.LectureNumber]
			if !ok || !cell.Assigned() {
				row[day.String()] = ""
				continue
			}
			counterpart := cell.TeacherName
			if grid.Mode == timetable.ViewModeTeacher {
				counterpart = cell.ClassLabel
			}
			row[day.String()] = strings.TrimSuffix(cell.SubjectName+" / "+counterpart, " / ")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func buildFilename(req ExportRequest) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s_%s_%s.%s", req.Mode, sanitizeFilename(req.OwnerID), sanitizeFilename(req.SessionID), timestamp, req.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
