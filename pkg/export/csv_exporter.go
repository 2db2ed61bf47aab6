package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// Dataset is a rendered table: ordered column headers plus rows keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns row i in header order. Cells a row does not set are empty.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	for col, header := range d.Headers {
		record[col] = d.Rows[i][header]
	}
	return record
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return errors.New("dataset has no headers")
	}
	seen := make(map[string]struct{}, len(d.Headers))
	for _, header := range d.Headers {
		if _, dup := seen[header]; dup {
			return fmt.Errorf("dataset header %q repeated", header)
		}
		seen[header] = struct{}{}
	}
	return nil
}

// utf8BOM lets spreadsheet apps detect UTF-8 in teacher and subject names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOption tunes a CSVExporter.
type CSVOption func(*CSVExporter)

// WithSeparator sets the field separator, e.g. ';' for locales using decimal commas.
func WithSeparator(sep rune) CSVOption {
	return func(e *CSVExporter) { e.separator = sep }
}

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// CSVExporter renders a Dataset as CSV.
type CSVExporter struct {
	separator rune
	bom       bool
}

// NewCSVExporter builds a comma separated exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{separator: ','}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render writes the header line then one line per row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	writer.Comma = e.separator
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i := range data.Rows {
		if err := writer.Write(data.Record(i)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
