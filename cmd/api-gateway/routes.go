package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type handlers struct {
	timetable *handler.TimetableHandler
	directory *handler.DirectoryHandler
	catalog   *handler.CatalogHandler
	export    *handler.ExportHandler
	metrics   *handler.MetricsHandler
}

var (
	admin   = string(models.RoleAdmin)
	clerk   = string(models.RoleClerk)
	teacher = string(models.RoleTeacher)
	student = string(models.RoleStudent)
)

func registerRoutes(r *gin.Engine, prefix string, h handlers, tokens middleware.TokenValidator) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Readiness)
	r.GET("/metrics", h.metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	// signed tokens authorize the download
	api.GET("/exports/:token", h.export.Fetch)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	readers := middleware.RBAC(admin, clerk, teacher, student)
	editors := middleware.RBAC(admin, clerk)

	catalog := secured.Group("/catalog", readers)
	catalog.GET("/time-slots", h.catalog.TimeSlots)
	catalog.GET("/days", h.catalog.Days)
	catalog.GET("/slots/:slotId", h.catalog.DecodeSlot)
	catalog.POST("/slots", h.catalog.EncodeSlot)

	secured.GET("/classes", readers, h.directory.ListClasses)
	secured.GET("/classes/:id", readers, h.directory.GetClass)
	secured.GET("/classes/:id/subjects", readers, h.directory.ListClassSubjects)
	secured.GET("/employees", readers, h.directory.ListEmployees)
	secured.GET("/employees/:id", readers, h.directory.GetEmployee)
	secured.GET("/subjects", readers, h.directory.ListSubjects)
	secured.GET("/sessions", readers, h.directory.ListSessions)
	secured.GET("/sessions/active", readers, h.directory.ActiveSession)
	secured.GET("/sessions/:id", readers, h.directory.GetSession)

	tt := secured.Group("/timetable")
	tt.GET("", readers, h.timetable.List)
	tt.GET("/classes/:id", readers, h.timetable.ClassTimetable)
	tt.GET("/teachers/:id", middleware.RBAC(admin, clerk, middleware.Self), h.timetable.TeacherSchedule)
	tt.GET("/grid", readers, h.timetable.Grid)
	tt.GET("/slots/:slotId", readers, h.timetable.ResolveSlot)
	tt.GET("/export", readers, h.export.Download)

	tt.POST("/entries", editors, h.timetable.CreateEntry)
	tt.PUT("/entries/:id", editors, h.timetable.UpdateEntry)
	tt.DELETE("/entries/:id", editors, h.timetable.DeleteEntry)
	tt.POST("/entries/bulk-delete", editors, h.timetable.DeleteEntries)
	tt.POST("/weekly", editors, h.timetable.CreateWeekly)
	tt.POST("/assign", editors, h.timetable.Assign)
	tt.POST("/move", editors, h.timetable.Move)
	tt.DELETE("/slots/:slotId", editors, h.timetable.ClearSlot)
	tt.PUT("/time-slots", editors, h.timetable.UpdateTimeSlots)
	tt.POST("/exports", editors, h.export.Publish)

	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.metrics.Summary)
}
