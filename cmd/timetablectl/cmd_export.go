package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func newExportCmd() *cobra.Command {
	var (
		mode      string
		sessionID string
		ownerID   string
		format    string
		outDir    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a class or teacher grid to CSV or PDF",
		Long:  `Reads the timetable from the database configured by the usual DB_* variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			viewMode, err := timetable.ParseViewMode(mode)
			if err != nil {
				return err
			}
			exportFormat, err := service.ParseExportFormat(format)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			catalog, err := cfg.Timetable.Catalog()
			if err != nil {
				return err
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			classRepo := repository.NewClassRepository(db)
			employeeRepo := repository.NewEmployeeRepository(db)
			subjectRepo := repository.NewSubjectRepository(db)
			sessionRepo := repository.NewSessionRepository(db)
			directory := service.NewDirectoryService(service.DirectoryRepositories{
				Classes:   classRepo,
				Employees: employeeRepo,
				Subjects:  subjectRepo,
				Sessions:  sessionRepo,
			}, logr)
			if sessionID == "" {
				active, err := directory.ActiveSession(cmd.Context())
				if err != nil {
					return err
				}
				sessionID = active.ID
			}

			timetables := service.NewTimetableService(
				repository.NewTimetableRepository(db),
				service.TimetableReferences{Classes: classRepo, Subjects: subjectRepo, Employees: employeeRepo, Sessions: sessionRepo},
				catalog, nil, nil, nil, service.NewValidator(), logr,
			)
			exports := service.NewExportService(timetables, directory, nil, nil, nil, service.ExportConfig{}, logr, nil, nil)

			file, err := exports.Render(cmd.Context(), service.ExportRequest{
				Mode:      viewMode,
				SessionID: sessionID,
				OwnerID:   ownerID,
				Format:    exportFormat,
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, file.Filename)
			if err := os.WriteFile(path, file.Body, 0o644); err != nil {
				return err
			}
			logr.Info("timetable exported", zap.String("path", path), zap.Int("bytes", len(file.Body)))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(timetable.ViewModeClass), "class or teacher")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (defaults to the active session)")
	cmd.Flags().StringVar(&ownerID, "id", "", "class id or employee id")
	cmd.Flags().StringVar(&format, "format", string(service.ExportFormatCSV), "csv or pdf")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
