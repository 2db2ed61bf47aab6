package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type catalogSource interface {
	Catalog() timetable.Catalog
}

// CatalogHandler exposes the period catalog, the weekdays and the slot id codec.
type CatalogHandler struct {
	source catalogSource
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(source catalogSource) *CatalogHandler {
	return &CatalogHandler{source: source}
}

type encodeSlotPayload struct {
	Day           string `json:"day"`
	LectureNumber int    `json:"lecture_number"`
	ClassID       string `json:"class_id"`
}

type slotPayload struct {
	SlotID string `json:"slot_id"`
	timetable.SlotKey
	TimeSlot *timetable.TimeSlot `json:"time_slot,omitempty"`
}

// TimeSlots godoc
// @Summary Period catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/time-slots [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.source.Catalog(), nil)
}

// Days godoc
// @Summary Teaching days
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/days [get]
func (h *CatalogHandler) Days(c *gin.Context) {
	response.JSON(c, http.StatusOK, timetable.DaysOfWeek(), nil)
}

// DecodeSlot godoc
// @Summary Split a slot id into day, lecture and class
// @Tags Catalog
// @Produce json
// @Param slotId path string true "Slot ID, e.g. Monday-3-7B"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/slots/{slotId} [get]
func (h *CatalogHandler) DecodeSlot(c *gin.Context) {
	key, err := timetable.DecodeSlotID(c.Param("slotId"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMalformedSlotID.Code, appErrors.ErrMalformedSlotID.Status, err.Error()))
		return
	}
	response.JSON(c, http.StatusOK, h.describe(key), nil)
}

// EncodeSlot godoc
// @Summary Build the slot id of a grid cell
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body encodeSlotPayload true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/slots [post]
func (h *CatalogHandler) EncodeSlot(c *gin.Context) {
	var req encodeSlotPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	day, ok := timetable.ParseWeekday(req.Day)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown day "+req.Day))
		return
	}
	key, err := timetable.NewSlotKey(day, req.LectureNumber, req.ClassID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	response.JSON(c, http.StatusOK, h.describe(key), nil)
}

func (h *CatalogHandler) describe(key timetable.SlotKey) slotPayload {
	payload := slotPayload{SlotID: key.ID(), SlotKey: key}
	if period, ok := h.source.Catalog().Lookup(key.LectureNumber); ok {
		payload.TimeSlot = &period
	}
	return payload
}
