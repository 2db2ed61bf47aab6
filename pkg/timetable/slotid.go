package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SlotSeparator joins the parts of an encoded slot id. Weekday names and decimal
// lecture numbers never contain it; class ids must not either.
const SlotSeparator = "-"

var (
	// ErrInvalidSlotKey is returned when a key cannot be encoded unambiguously.
	ErrInvalidSlotKey = errors.New("invalid slot key")
	// ErrMalformedSlotID is returned when a slot id cannot be decoded.
	ErrMalformedSlotID = errors.New("malformed slot id")
)

// SlotKey identifies one (day, lecture, class) cell of the weekly grid.
type SlotKey struct {
	Day           Weekday `json:"day"`
	LectureNumber int     `json:"lecture_number"`
	ClassID       string  `json:"class_id"`
}

// NewSlotKey validates the parts and returns the key.
func NewSlotKey(day Weekday, lectureNumber int, classID string) (SlotKey, error) {
	key := SlotKey{Day: day, LectureNumber: lectureNumber, ClassID: classID}
	if err := key.Validate(); err != nil {
		return SlotKey{}, err
	}
	return key, nil
}

// Validate reports whether the key would survive an encode/decode round trip.
func (k SlotKey) Validate() error {
	if !k.Day.Valid() {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidSlotKey, k.Day)
	}
	if k.LectureNumber < 0 {
		return fmt.Errorf("%w: negative lecture number %d", ErrInvalidSlotKey, k.LectureNumber)
	}
	if k.ClassID == "" {
		return fmt.Errorf("%w: empty class id", ErrInvalidSlotKey)
	}
	if strings.Contains(k.ClassID, SlotSeparator) {
		return fmt.Errorf("%w: class id %q contains %q", ErrInvalidSlotKey, k.ClassID, SlotSeparator)
	}
	return nil
}

// ID encodes the key. Callers must have validated it; use EncodeSlotID otherwise.
func (k SlotKey) ID() string {
	return string(k.Day) + SlotSeparator + strconv.Itoa(k.LectureNumber) + SlotSeparator + k.ClassID
}

// EncodeSlotID encodes a cell as "Day-Lecture-Class", e.g. "Friday-9-7B".
func EncodeSlotID(day Weekday, lectureNumber int, classID string) (string, error) {
	key, err := NewSlotKey(day, lectureNumber, classID)
	if err != nil {
		return "", err
	}
	return key.ID(), nil
}

// DecodeSlotID is the inverse of EncodeSlotID. Any id that EncodeSlotID could not
// have produced is rejected with ErrMalformedSlotID.
func DecodeSlotID(slotID string) (SlotKey, error) {
	parts := strings.Split(slotID, SlotSeparator)
	if len(parts) != 3 {
		return SlotKey{}, fmt.Errorf("%w: %q has %d segments, want 3", ErrMalformedSlotID, slotID, len(parts))
	}

	day := Weekday(parts[0])
	if !day.Valid() {
		return SlotKey{}, fmt.Errorf("%w: %q has unknown day %q", ErrMalformedSlotID, slotID, parts[0])
	}
	if !isDigits(parts[1]) {
		return SlotKey{}, fmt.Errorf("%w: %q has non-numeric lecture %q", ErrMalformedSlotID, slotID, parts[1])
	}
	if len(parts[1]) > 1 && parts[1][0] == '0' {
		return SlotKey{}, fmt.Errorf("%w: %q has zero-padded lecture %q", ErrMalformedSlotID, slotID, parts[1])
	}
	lecture, err := strconv.Atoi(parts[1])
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedSlotID, slotID, err)
	}
	if parts[2] == "" {
		return SlotKey{}, fmt.Errorf("%w: %q has empty class id", ErrMalformedSlotID, slotID)
	}

	return SlotKey{Day: day, LectureNumber: lecture, ClassID: parts[2]}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
