package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersHeadersAndRows(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"action", "actor_name"},
		Rows: []map[string]string{
			{"action": "ADMISSION_APPROVED", "actor_name": "Admin"},
			{"action": "PARENT_LINKED", "actor_name": "Admin"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "action,actor_name", lines[0])
	assert.Equal(t, "ADMISSION_APPROVED,Admin", lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestLetterExporterRendersPDF(t *testing.T) {
	exporter := NewLetterExporter()

	payload, err := exporter.Render(Letter{
		SchoolName: "Sunrise Academy",
		Title:      "Admission Offer Letter",
		Recipient:  "Meera Rao",
		Paragraphs: []string{"We are pleased to confirm the admission."},
		Fields:     [][2]string{{"Student", "Asha Rao"}, {"Grade", "Grade 5"}},
		IssuedBy:   "Admin",
		IssuedAt:   "1 September 2026",
	})
	require.NoError(t, err)
	require.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestLetterExporterRequiresTitle(t *testing.T) {
	_, err := NewLetterExporter().Render(Letter{})
	require.Error(t, err)
}
