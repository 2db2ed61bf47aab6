package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

type staticCatalog timetable.Catalog

func (s staticCatalog) Catalog() timetable.Catalog {
	return timetable.Catalog(s)
}

func TestCatalogHandlerTimeSlotsAndDays(t *testing.T) {
	handler := NewCatalogHandler(staticCatalog(timetable.DefaultCatalog()))

	c, w := newTestContext(http.MethodGet, "/catalog/time-slots", "")
	handler.TimeSlots(c)
	require.Equal(t, http.StatusOK, w.Code)
	var slots struct {
		Data []timetable.TimeSlot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots.Data, 9)
	assert.Equal(t, "08:00", slots.Data[0].StartTime)

	c, w = newTestContext(http.MethodGet, "/catalog/days", "")
	handler.Days(c)
	var days struct {
		Data []timetable.Weekday `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &days))
	assert.Equal(t, timetable.DaysOfWeek(), days.Data)
}

func TestCatalogHandlerDecodeSlot(t *testing.T) {
	handler := NewCatalogHandler(staticCatalog(timetable.DefaultCatalog()))

	c, w := newTestContext(http.MethodGet, "/catalog/slots/Friday-9-7B", "")
	c.Params = gin.Params{{Key: "slotId", Value: "Friday-9-7B"}}
	handler.DecodeSlot(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			SlotID        string              `json:"slot_id"`
			Day           timetable.Weekday   `json:"day"`
			LectureNumber int                 `json:"lecture_number"`
			ClassID       string              `json:"class_id"`
			TimeSlot      *timetable.TimeSlot `json:"time_slot"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, timetable.Friday, body.Data.Day)
	assert.Equal(t, 9, body.Data.LectureNumber)
	assert.Equal(t, "7B", body.Data.ClassID)
	require.NotNil(t, body.Data.TimeSlot)
}

func TestCatalogHandlerDecodeMalformedSlot(t *testing.T) {
	handler := NewCatalogHandler(staticCatalog(timetable.DefaultCatalog()))

	for _, id := range []string{"Funday-1-7B", "Monday-1", "Monday-x-7B", "Monday-1-7-B"} {
		c, w := newTestContext(http.MethodGet, "/catalog/slots/"+id, "")
		c.Params = gin.Params{{Key: "slotId", Value: id}}
		handler.DecodeSlot(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.Contains(t, w.Body.String(), "MALFORMED_SLOT_ID", id)
	}
}

func TestCatalogHandlerEncodeSlot(t *testing.T) {
	handler := NewCatalogHandler(staticCatalog(timetable.DefaultCatalog()))

	c, w := newTestContext(http.MethodPost, "/catalog/slots", `{"day":"monday","lecture_number":3,"class_id":"7B"}`)
	handler.EncodeSlot(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slot_id":"Monday-3-7B"`)

	c, w = newTestContext(http.MethodPost, "/catalog/slots", `{"day":"Monday","lecture_number":3,"class_id":"7-B"}`)
	handler.EncodeSlot(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
