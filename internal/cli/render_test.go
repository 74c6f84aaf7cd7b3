package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/presenter"
)

func withNoColor(t *testing.T, v bool) {
	t.Helper()
	prev := noColor
	noColor = v
	t.Cleanup(func() { noColor = prev })
}

func samplePanel() presenter.Panel {
	return presenter.Panel{
		Title:     "Classification",
		Available: true,
		Badge:     presenter.BadgeHighRisk,
		Lines: []presenter.Line{
			{Label: "Predicted class", Value: "Koilocytotic"},
			{Value: "Recommend colposcopy"},
		},
	}
}

func TestRenderPanel_NoColorMatchesText(t *testing.T) {
	withNoColor(t, true)
	p := samplePanel()
	require.Equal(t, presenter.RenderText(p), renderPanel(p))
}

func TestRenderPanel_Styled(t *testing.T) {
	withNoColor(t, false)

	out := renderPanel(samplePanel())
	require.Contains(t, out, "Classification")
	require.Contains(t, out, "[High Risk]")
	require.Contains(t, out, "Predicted class:")
	require.Contains(t, out, "Koilocytotic")
	require.Contains(t, out, "• Recommend colposcopy")
	require.Contains(t, out, "╭")

	unavailable := renderPanel(presenter.Panel{Title: "Quality"})
	require.Contains(t, unavailable, presenter.NotAvailable)
}

func TestBadgeColor(t *testing.T) {
	require.Equal(t, colorError, badgeColor("High Risk"))
	require.Equal(t, colorError, badgeColor("failed"))
	require.Equal(t, colorSuccess, badgeColor("Low Risk"))
	require.Equal(t, colorInfo, badgeColor("processing"))
	require.Equal(t, colorWarning, badgeColor("fair"))
}

func TestRenderToast(t *testing.T) {
	withNoColor(t, true)
	require.Equal(t, "✔ Analysis complete", renderToast(port.NotifySuccess, "Analysis complete"))
	require.Equal(t, "✖ Segmentation failed: 500", renderToast(port.NotifyError, "Segmentation failed: 500"))
	require.Equal(t, "plain", renderToast(port.NotificationKind("other"), "plain"))
}

func TestProgressBar(t *testing.T) {
	require.Equal(t, "[░░░░]", progressBar(0, 4))
	require.Equal(t, "[██░░]", progressBar(50, 4))
	require.Equal(t, "[████]", progressBar(250, 4))
	require.Equal(t, "[░░░░]", progressBar(-5, 4))
}

func TestPrintPanels(t *testing.T) {
	withNoColor(t, true)
	var buf bytes.Buffer
	printPanels(&buf, samplePanel(), presenter.Panel{Title: "Quality"})
	require.Equal(t, 1, strings.Count(buf.String(), presenter.NotAvailable))
	require.Contains(t, buf.String(), "\n\nQuality\n")
}
