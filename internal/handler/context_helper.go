package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type activeSessionFinder interface {
	ActiveSession(ctx context.Context) (*models.Session, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// authorizeView applies the teacher schedule rule to grid and export reads:
// staff see every teacher's week, anyone else only their own. Class views are
// open to every reader.
func authorizeView(c *gin.Context, mode timetable.ViewMode, ownerID string) error {
	if mode != timetable.ViewModeTeacher {
		return nil
	}
	if middleware.Allowed(c, ownerID, string(models.RoleAdmin), string(models.RoleClerk), middleware.Self) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this teacher's timetable")
}

// resolveSessionID prefers the explicit id, then the session_id query param, then
// the active session.
func resolveSessionID(c *gin.Context, sessions activeSessionFinder, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(c.Query("session_id")); id != "" {
		return id, nil
	}
	if sessions == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "session_id is required")
	}
	active, err := sessions.ActiveSession(c.Request.Context())
	if err != nil {
		return "", err
	}
	return active.ID, nil
}

// pageParams reads page and page_size (limit is accepted as an alias).
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	sizeRaw := c.Query("page_size")
	if sizeRaw == "" {
		sizeRaw = c.DefaultQuery("limit", "20")
	}
	size, _ := strconv.Atoi(sizeRaw)
	return page, size
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
