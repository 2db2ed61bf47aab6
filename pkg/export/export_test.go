package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Lecture", "Monday", "Tuesday"},
		Rows: []map[string]string{
			{"Lecture": "1 (08:00-08:35)", "Monday": "Math / A. Rahman", "Tuesday": ""},
			{"Lecture": "2 (08:40-09:15)", "Tuesday": "Biology"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Lecture,Monday,Tuesday\n1 (08:00-08:35),Math / A. Rahman,\n2 (08:40-09:15),,Biology\n", string(out))
}

func TestCSVExporterRejectsBadHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"Monday", "Monday"}})
	assert.ErrorContains(t, err, "repeated")
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithSeparator(';'), WithBOM()).Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "Lecture;Monday;Tuesday\n1 (08:00-08:35);Math / A. Rahman;\n2 (08:40-09:15);;Biology\n", string(out[len(utf8BOM):]))
}

func TestDatasetRecordFillsMissingCells(t *testing.T) {
	assert.Equal(t, []string{"2 (08:40-09:15)", "", "Biology"}, sampleDataset().Record(1))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), PDFOptions{Title: "Class 7B", Subtitle: "2025/2026", Landscape: true, LeadColumnWidth: 30})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{}, PDFOptions{})
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{30, 60, 60}, columnWidths(3, 150, 30))
	assert.Equal(t, []float64{50, 50, 50}, columnWidths(3, 150, 0))
	assert.Equal(t, []float64{150}, columnWidths(1, 150, 30))
}
