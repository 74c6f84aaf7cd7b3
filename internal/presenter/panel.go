// Package presenter собирает панели результатов из ответа бэкенда.
// Каждая панель читает только свои поля и при их отсутствии показывает "Not available".
package presenter

import (
	"fmt"
	"strings"
)

// NotAvailable текст панели без данных
const NotAvailable = "Not available"

// Line строка панели. Пустой Label означает свободный текст.
type Line struct {
	Label string
	Value string
}

// Panel готовая к показу панель
type Panel struct {
	Title     string
	Available bool
	Badge     string
	Lines     []Line
}

func unavailable(title string) Panel {
	return Panel{Title: title}
}

func (p *Panel) add(label, value string) {
	p.Lines = append(p.Lines, Line{Label: label, Value: value})
}

func (p *Panel) addf(label, format string, args ...any) {
	p.add(label, fmt.Sprintf(format, args...))
}

func (p *Panel) note(text string) {
	p.Lines = append(p.Lines, Line{Value: text})
}

// RenderText рендерит панель простым текстом для чата
func RenderText(p Panel) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Badge != "" {
		b.WriteString(" [" + p.Badge + "]")
	}
	b.WriteByte('\n')
	if !p.Available {
		b.WriteString(NotAvailable)
		return b.String()
	}
	for _, l := range p.Lines {
		if l.Label == "" {
			b.WriteString("• " + l.Value + "\n")
			continue
		}
		b.WriteString(l.Label + ": " + l.Value + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// percent форматирует долю 0..1 в проценты с двумя знаками
func percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
