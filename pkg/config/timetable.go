package config

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

// Catalog resolves the single period catalog for the process.
func (c TimetableConfig) Catalog() (timetable.Catalog, error) {
	switch {
	case c.CatalogFile != "":
		catalog, err := timetable.LoadCatalogFile(c.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("timetable catalog file %s: %w", c.CatalogFile, err)
		}
		return catalog, nil
	case c.TimeSlots != "":
		catalog, err := timetable.ParseCatalog(c.TimeSlots)
		if err != nil {
			return nil, fmt.Errorf("TIMETABLE_TIME_SLOTS: %w", err)
		}
		return catalog, nil
	default:
		return timetable.DefaultCatalog(), nil
	}
}
