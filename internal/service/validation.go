package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// NewValidator returns a validator with the timetable tags registered:
// hhmm (24h clock), weekday (Monday..Saturday) and classid (no slot separator).
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timetable.ValidClock(fl.Field().String())
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return timetable.Weekday(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("classid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return id != "" && !strings.Contains(id, timetable.SlotSeparator)
	})
	return v
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	return v
}
