package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

func TestParsePatient(t *testing.T) {
	require.Equal(t, port.Patient{}, parsePatient("  "))
	require.Equal(t, port.Patient{ID: "P-102"}, parsePatient("P-102"))
	require.Equal(t, port.Patient{ID: "P-102", Name: "Jane Doe"}, parsePatient(" P-102  Jane   Doe "))
}

func TestParseViewArgs(t *testing.T) {
	view, err := parseViewArgs("layercam masked 40%", app.DefaultView())
	require.NoError(t, err)
	require.Equal(t, app.ExplainabilityView{Method: entity.MethodLayerCAM, Mode: port.BlendMasked, Opacity: 40}, view)

	view, err = parseViewArgs("HEATMAP", app.DefaultView())
	require.NoError(t, err)
	require.Equal(t, port.BlendHeatmapOnly, view.Mode)
	require.Equal(t, entity.MethodScoreCAM, view.Method)

	view, err = parseViewArgs("", app.DefaultView())
	require.NoError(t, err)
	require.Equal(t, app.DefaultView(), view)

	_, err = parseViewArgs("sepia", app.DefaultView())
	require.True(t, entity.IsValidation(err))
}

func TestParseReportArgs(t *testing.T) {
	meta, err := parseReportArgs("P-7 sample=S-1 clinician=Dr.House date=2026-10-14 notes=repeat in 6 months")
	require.NoError(t, err)
	require.Equal(t, entity.ReportMetadata{
		PatientID:    "P-7",
		SampleID:     "S-1",
		Clinician:    "Dr.House",
		AnalysisDate: "2026-10-14",
		Notes:        "repeat in 6 months",
	}, meta)

	meta, err = parseReportArgs("")
	require.NoError(t, err)
	require.Empty(t, meta.PatientID)

	_, err = parseReportArgs("P-7 date=14.10.2026")
	require.True(t, entity.IsValidation(err))
	_, err = parseReportArgs("P-7 P-8")
	require.True(t, entity.IsValidation(err))
	_, err = parseReportArgs("P-7 color=red")
	require.True(t, entity.IsValidation(err))
}

func TestSplitMessage(t *testing.T) {
	require.Equal(t, []string{"short"}, splitMessage("short", 10))

	text := strings.Repeat("line\n", 5)
	parts := splitMessage(strings.TrimRight(text, "\n"), 12)
	require.Equal(t, []string{"line\nline", "line\nline", "line"}, parts)

	long := strings.Repeat("я", 25)
	parts = splitMessage(long, 10)
	require.Len(t, parts, 3)
	require.Equal(t, long, strings.Join(parts, ""))
}
