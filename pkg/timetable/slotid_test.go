package timetable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSlotID(t *testing.T) {
	id, err := EncodeSlotID(Friday, 9, "7B")
	require.NoError(t, err)
	assert.Equal(t, "Friday-9-7B", id)
}

func TestDecodeSlotID(t *testing.T) {
	key, err := DecodeSlotID("Friday-9-7B")
	require.NoError(t, err)
	assert.Equal(t, SlotKey{Day: Friday, LectureNumber: 9, ClassID: "7B"}, key)
}

func TestSlotIDRoundTrip(t *testing.T) {
	lectures := []int{0, 1, 2, 5, 9, 10, 99, 1234, math.MaxInt32}
	classIDs := []string{"7B", "c1", "ckx9f0a1b0000qz8h2m7n3k4p", "10A", "x"}

	for _, day := range DaysOfWeek() {
		for _, lecture := range lectures {
			for _, classID := range classIDs {
				id, err := EncodeSlotID(day, lecture, classID)
				require.NoError(t, err)

				key, err := DecodeSlotID(id)
				require.NoError(t, err, id)
				assert.Equal(t, SlotKey{Day: day, LectureNumber: lecture, ClassID: classID}, key)
			}
		}
	}
}

func TestSlotIDRejectsSeparatorInClassID(t *testing.T) {
	_, err := EncodeSlotID(Monday, 3, "class-10a")
	require.ErrorIs(t, err, ErrInvalidSlotKey)

	// A hand-built id with an embedded separator cannot be told apart from a
	// four-part key, so it is refused rather than guessed.
	_, err = DecodeSlotID("Monday-3-class-10a")
	require.ErrorIs(t, err, ErrMalformedSlotID)
}

func TestEncodeSlotIDValidation(t *testing.T) {
	cases := []struct {
		name    string
		day     Weekday
		lecture int
		classID string
	}{
		{name: "unknown day", day: "Sunday", lecture: 1, classID: "7B"},
		{name: "lowercase day", day: "monday", lecture: 1, classID: "7B"},
		{name: "negative lecture", day: Monday, lecture: -1, classID: "7B"},
		{name: "empty class", day: Monday, lecture: 1, classID: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeSlotID(tc.day, tc.lecture, tc.classID)
			assert.ErrorIs(t, err, ErrInvalidSlotKey)
		})
	}
}

func TestDecodeSlotIDMalformed(t *testing.T) {
	inputs := []string{
		"onlyoneword",
		"",
		"Monday-3",
		"Monday--7B",
		"Monday-x-7B",
		"Monday-+3-7B",
		"Friday-09-7B",
		"Monday-00-7B",
		"Monday-3-",
		"Funday-3-7B",
		"Monday-99999999999999999999-7B",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = DecodeSlotID(input)
			})
			assert.ErrorIs(t, err, ErrMalformedSlotID)
		})
	}
}

func TestDecodeSlotIDLectureZeroIsNotAnError(t *testing.T) {
	key, err := DecodeSlotID("Tuesday-0-7B")
	require.NoError(t, err)
	assert.Equal(t, 0, key.LectureNumber)
}

func TestSlotKeyUsableAsMapKey(t *testing.T) {
	seen := map[SlotKey]bool{}
	a, err := NewSlotKey(Monday, 1, "7B")
	require.NoError(t, err)
	b, err := DecodeSlotID("Monday-1-7B")
	require.NoError(t, err)

	seen[a] = true
	assert.True(t, seen[b])
	assert.Equal(t, a.ID(), b.ID())
}

func TestParseWeekday(t *testing.T) {
	day, ok := ParseWeekday(" saturday ")
	require.True(t, ok)
	assert.Equal(t, Saturday, day)

	_, ok = ParseWeekday("Sunday")
	assert.False(t, ok)

	assert.Equal(t, []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}, DaysOfWeek())
	assert.Equal(t, 0, Monday.Index())
	assert.Equal(t, -1, Weekday("Sunday").Index())
}
