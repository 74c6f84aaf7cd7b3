package presenter

import (
	"fmt"
	"sort"
	"time"

	"cyto-bot/internal/domain/entity"
)

// Quality оценка качества снимка
func Quality(q *entity.QualityAssessment) Panel {
	const title = "Image Quality"
	if q == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true, Badge: string(q.QualityLevel)}
	p.addf("Score", "%.1f/100", q.QualityScore)
	p.add("Level", string(q.QualityLevel))
	for _, issue := range q.Issues {
		p.add("Issue", issue)
	}
	for _, rec := range q.Recommendations {
		p.note(rec)
	}
	return p
}

// MultiCell найденные клетки
func MultiCell(m *entity.MultiCellDetectionResult) Panel {
	const title = "Multi-Cell Detection"
	if m == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true}
	p.addf("Total cells", "%d", m.TotalCells)
	for _, c := range m.Cells {
		b := c.BoundingBox
		p.add(c.CellID, fmt.Sprintf("%s at (%.0f, %.0f) %.0f×%.0f", percent(c.Confidence), b.X, b.Y, b.Width, b.Height))
	}
	return p
}

// Stain результат нормализации окраски
func Stain(s *entity.StainNormalization) Panel {
	const title = "Stain Normalization"
	if s == nil || s.NormalizedImage == "" {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true}
	if s.Method != nil && *s.Method != "" {
		p.add("Method", *s.Method)
	}
	if s.Strategy != nil && *s.Strategy != "" {
		p.add("Strategy", *s.Strategy)
	}
	p.add("Normalized image", "ready")
	return p
}

// Batch состояние пакетного задания
func Batch(j *entity.BatchJob) Panel {
	const title = "Batch Processing"
	if j == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true, Badge: string(j.Status)}
	p.add("Job", j.JobID)
	p.add("Status", string(j.Status))
	p.add("Progress", j.FormatProgress())
	p.addf("Files", "%d / %d", j.ProcessedFiles, j.TotalFiles)
	if created, ok := j.Created(); ok {
		p.add("Created", created.Local().Format(time.DateTime))
	} else if j.CreatedAt != "" {
		p.add("Created", j.CreatedAt)
	}
	if j.CompletedAt != nil && *j.CompletedAt != "" {
		p.add("Completed", *j.CompletedAt)
	}

	counts := make(map[string]int)
	for _, r := range j.Results {
		counts[r.PredictedClass]++
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		name := c
		if name == "" {
			name = "Unclassified"
		}
		p.addf(name, "%d", counts[c])
	}
	return p
}
