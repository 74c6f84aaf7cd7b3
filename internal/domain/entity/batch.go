package entity

import (
	"fmt"
	"time"
)

// BatchStatus статус пакетного задания
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// BatchJob пакетное задание на бэкенде. Порядок Results задаёт бэкенд.
type BatchJob struct {
	JobID          string           `json:"job_id"`
	Status         BatchStatus      `json:"status"`
	TotalFiles     int              `json:"total_files"`
	ProcessedFiles int              `json:"processed_files"`
	Results        []AnalysisResult `json:"results"`
	CreatedAt      string           `json:"created_at,omitempty"`
	CompletedAt    *string          `json:"completed_at,omitempty"`
}

// Progress возвращает processed/total*100 без ограничения сверху.
// Для пустого задания прогресс равен 0.
func (j *BatchJob) Progress() float64 {
	if j == nil || j.TotalFiles == 0 {
		return 0
	}
	return float64(j.ProcessedFiles) / float64(j.TotalFiles) * 100
}

// FormatProgress форматирует прогресс с одним знаком после запятой.
func (j *BatchJob) FormatProgress() string {
	return fmt.Sprintf("%.1f%%", j.Progress())
}

// IsTerminal сообщает, что задание завершено успешно или с ошибкой.
func (j *BatchJob) IsTerminal() bool {
	if j == nil {
		return false
	}
	return j.Status == BatchCompleted || j.Status == BatchFailed
}

// Created разбирает время создания, если бэкенд прислал его в RFC 3339.
func (j *BatchJob) Created() (time.Time, bool) {
	if j == nil || j.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, j.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
