package timetable

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogPlan generates a catalog from a start time and fixed period lengths.
// LongBreakAfter names the lecture followed by LongBreakMinutes instead of GapMinutes.
type CatalogPlan struct {
	Start            string `yaml:"start"`
	Lectures         int    `yaml:"lectures"`
	LectureMinutes   int    `yaml:"lecture_minutes"`
	GapMinutes       int    `yaml:"gap_minutes"`
	LongBreakAfter   int    `yaml:"long_break_after"`
	LongBreakMinutes int    `yaml:"long_break_minutes"`
}

// Build expands the plan into a validated catalog.
func (p CatalogPlan) Build() (Catalog, error) {
	start := Minutes(p.Start)
	if start < 0 {
		return nil, fmt.Errorf("%w: plan start %q is not HH:MM", ErrInvalidCatalog, p.Start)
	}
	if p.Lectures < 1 || p.LectureMinutes < 1 || p.GapMinutes < 0 || p.LongBreakMinutes < 0 {
		return nil, fmt.Errorf("%w: plan lengths must be positive", ErrInvalidCatalog)
	}

	catalog := make(Catalog, 0, p.Lectures)
	current := start
	for n := 1; n <= p.Lectures; n++ {
		end := current + p.LectureMinutes
		if end >= 24*60 {
			return nil, fmt.Errorf("%w: lecture %d runs past midnight", ErrInvalidCatalog, n)
		}
		catalog = append(catalog, TimeSlot{LectureNumber: n, StartTime: FormatClock(current), EndTime: FormatClock(end)})
		current = end + p.GapMinutes
		if n == p.LongBreakAfter {
			current = end + p.LongBreakMinutes
		}
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

type catalogFile struct {
	Slots []TimeSlot   `yaml:"slots"`
	Plan  *CatalogPlan `yaml:"plan"`
}

// LoadCatalogFile reads a YAML catalog holding either an explicit slots list or a plan.
func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return DecodeCatalogYAML(data)
}

// DecodeCatalogYAML parses catalog YAML content.
func DecodeCatalogYAML(data []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	switch {
	case len(file.Slots) > 0 && file.Plan != nil:
		return nil, fmt.Errorf("%w: file sets both slots and plan", ErrInvalidCatalog)
	case file.Plan != nil:
		return file.Plan.Build()
	default:
		catalog := Catalog(file.Slots)
		if err := catalog.Validate(); err != nil {
			return nil, err
		}
		return catalog, nil
	}
}
