package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Clone(ErrConflict, "teacher already scheduled"))

	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "teacher already scheduled", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesSentinel(t *testing.T) {
	clone := Clone(ErrNotFound, "class not found")
	assert.True(t, errors.Is(clone, ErrNotFound))
	assert.False(t, errors.Is(clone, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("decode failed")
	err := Wrap(cause, ErrMalformedSlotID.Code, ErrMalformedSlotID.Status, "slot id is not decodable")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "slot id is not decodable: decode failed", err.Error())
}
