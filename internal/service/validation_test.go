package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidatorTimetableTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Var("08:05", "hhmm"))
	assert.NoError(t, v.Var("8:05", "hhmm"))
	assert.Error(t, v.Var("24:00", "hhmm"))
	assert.Error(t, v.Var("0805", "hhmm"))

	assert.NoError(t, v.Var("Saturday", "weekday"))
	assert.Error(t, v.Var("Sunday", "weekday"))
	assert.Error(t, v.Var("monday", "weekday"))

	assert.NoError(t, v.Var("10IPA1", "classid"))
	assert.Error(t, v.Var("10-IPA-1", "classid"))
}
