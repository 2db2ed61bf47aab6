package timetable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether value is a 24h wall clock time such as "08:40".
func ValidClock(value string) bool {
	return clockPattern.MatchString(value)
}

// Minutes converts an HH:MM value into minutes after midnight. It returns -1 for
// values that are not valid clock times.
func Minutes(value string) int {
	if !ValidClock(value) {
		return -1
	}
	hh, mm, _ := strings.Cut(value, ":")
	hours, _ := strconv.Atoi(hh)
	minutes, _ := strconv.Atoi(mm)
	return hours*60 + minutes
}

// FormatClock renders minutes after midnight as zero-padded HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
