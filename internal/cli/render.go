package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/presenter"
)

// Палитра терминала для светлого и тёмного фона
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#3B82F6"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	colorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#06B6D4"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	noteStyle  = lipgloss.NewStyle().Italic(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// badgeColor цвет значка: риск и сбои красным, норма зелёным
func badgeColor(badge string) lipgloss.AdaptiveColor {
	switch strings.ToLower(badge) {
	case "high risk", "high", "critical", "failed", "poor":
		return colorError
	case "low risk", "low", "completed", "good", "excellent":
		return colorSuccess
	case "pending", "processing":
		return colorInfo
	}
	return colorWarning
}

// renderPanel рисует панель рамкой; с --no-color печатает простой текст
func renderPanel(p presenter.Panel) string {
	if noColor {
		return presenter.RenderText(p)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title))
	if p.Badge != "" {
		badge := lipgloss.NewStyle().Bold(true).Foreground(badgeColor(p.Badge))
		b.WriteString(" " + badge.Render("["+p.Badge+"]"))
	}
	if !p.Available {
		b.WriteString("\n" + labelStyle.Render(presenter.NotAvailable))
		return panelStyle.Render(b.String())
	}
	for _, l := range p.Lines {
		b.WriteByte('\n')
		if l.Label == "" {
			b.WriteString(noteStyle.Render("• " + l.Value))
			continue
		}
		b.WriteString(labelStyle.Render(l.Label+":") + " " + l.Value)
	}
	return panelStyle.Render(b.String())
}

// printPanels печатает панели друг под другом
func printPanels(w io.Writer, panels ...presenter.Panel) {
	rendered := make([]string, 0, len(panels))
	for _, p := range panels {
		rendered = append(rendered, renderPanel(p))
	}
	sep := "\n"
	if noColor {
		sep = "\n\n"
	}
	fmt.Fprintln(w, strings.Join(rendered, sep))
}

// printJSON печатает значение с отступами
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render печатает значение в выбранном формате
func render(w io.Writer, v any, panels ...presenter.Panel) error {
	if outputFmt == outputJSON {
		return printJSON(w, v)
	}
	printPanels(w, panels...)
	return nil
}

var toastIcons = map[port.NotificationKind]string{
	port.NotifySuccess: "✔",
	port.NotifyError:   "✖",
	port.NotifyInfo:    "•",
}

var toastColors = map[port.NotificationKind]lipgloss.AdaptiveColor{
	port.NotifySuccess: colorSuccess,
	port.NotifyError:   colorError,
	port.NotifyInfo:    colorInfo,
}

// renderToast строка уведомления для stderr
func renderToast(kind port.NotificationKind, message string) string {
	line := message
	if icon, ok := toastIcons[kind]; ok {
		line = icon + " " + message
	}
	if noColor {
		return line
	}
	return lipgloss.NewStyle().Foreground(toastColors[kind]).Render(line)
}

// progressBar полоса прогресса шириной width символов
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
