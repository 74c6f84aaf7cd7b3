package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// maxMessageLength ограничение Telegram на длину текста сообщения
const maxMessageLength = 4096

// parsePatient читает ID и имя пациента из подписи: первое слово ID, остальное имя.
func parsePatient(caption string) port.Patient {
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return port.Patient{}
	}
	return port.Patient{ID: fields[0], Name: strings.Join(fields[1:], " ")}
}

// parseViewArgs применяет аргументы /xai к текущему виду карты.
// Аргументы в любом порядке: метод, режим, прозрачность.
func parseViewArgs(args string, view app.ExplainabilityView) (app.ExplainabilityView, error) {
	for _, arg := range strings.Fields(strings.ToLower(args)) {
		switch arg {
		case entity.MethodScoreCAM, "score-cam":
			view.Method = entity.MethodScoreCAM
			continue
		case entity.MethodLayerCAM, "layer-cam":
			view.Method = entity.MethodLayerCAM
			continue
		case "heatmap":
			view.Mode = port.BlendHeatmapOnly
			continue
		}
		if mode := port.BlendMode(arg); mode.Valid() {
			view.Mode = mode
			continue
		}
		opacity, err := strconv.Atoi(strings.TrimSuffix(arg, "%"))
		if err != nil {
			return view, entity.NewValidationError(fmt.Sprintf("Unknown argument %q", arg))
		}
		view.Opacity = opacity
	}
	return view, nil
}

// parseReportArgs разбирает /report <patient_id> [sample=…] [clinician=…] [date=…] [notes=…].
// notes= забирает остаток строки целиком.
func parseReportArgs(args string) (entity.ReportMetadata, error) {
	var meta entity.ReportMetadata
	if i := strings.Index(args, "notes="); i >= 0 {
		meta.Notes = strings.TrimSpace(args[i+len("notes="):])
		args = args[:i]
	}

	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			if meta.PatientID == "" {
				meta.PatientID = field
				continue
			}
			return meta, entity.NewValidationError(fmt.Sprintf("Unexpected argument %q", field))
		}
		switch strings.ToLower(key) {
		case "patient", "patient_id":
			meta.PatientID = value
		case "sample", "sample_id":
			meta.SampleID = value
		case "clinician":
			meta.Clinician = value
		case "date":
			if _, err := time.Parse(entity.DateLayout, value); err != nil {
				return meta, entity.NewValidationError("Analysis date must be YYYY-MM-DD")
			}
			meta.AnalysisDate = value
		default:
			return meta, entity.NewValidationError(fmt.Sprintf("Unknown report field %q", key))
		}
	}
	return meta, nil
}

// splitMessage делит текст по строкам на части не длиннее limit символов.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var parts []string
	var current strings.Builder
	size := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit && size > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			size = 0
		}
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n = utf8.RuneCountInString(line)
		}
		current.WriteString(line)
		size += n
	}
	if size > 0 {
		parts = append(parts, strings.TrimRight(current.String(), "\n"))
	}
	return parts
}
