package cli

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
)

func TestProgressLine(t *testing.T) {
	job := &entity.BatchJob{JobID: "job-1", Status: entity.BatchProcessing, TotalFiles: 4, ProcessedFiles: 1}
	require.Equal(t, "[███████░░░░░░░░░░░░░░░░░░░░░░░] 25.0% processing 1/4", progressLine(job))
}

func TestBatchModel_Updates(t *testing.T) {
	job := &entity.BatchJob{JobID: "job-1", Status: entity.BatchPending, TotalFiles: 2}
	m := newBatchModel(job, nil)
	require.Nil(t, m.Init())
	require.Contains(t, m.View(), "job-1")
	require.Contains(t, m.View(), "0/2")

	next := &entity.BatchJob{JobID: "job-1", Status: entity.BatchProcessing, TotalFiles: 2, ProcessedFiles: 1}
	model, cmd := m.Update(batchUpdateMsg{job: next})
	require.Nil(t, cmd)
	m = model.(batchModel)
	require.Contains(t, m.View(), "1/2")

	// Пустое обновление не затирает последнее состояние
	model, _ = m.Update(batchUpdateMsg{})
	m = model.(batchModel)
	require.Same(t, next, m.job)

	final := &entity.BatchJob{JobID: "job-1", Status: entity.BatchCompleted, TotalFiles: 2, ProcessedFiles: 2}
	model, cmd = m.Update(batchDoneMsg{job: final})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	m = model.(batchModel)
	require.True(t, m.done)
	require.NoError(t, m.err)
	require.Same(t, final, m.job)
	require.Empty(t, m.View())
}

func TestBatchModel_QuitKeyCancels(t *testing.T) {
	cancelled := false
	m := newBatchModel(&entity.BatchJob{JobID: "job-1"}, func() { cancelled = true })

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.True(t, cancelled)

	m = model.(batchModel)
	require.ErrorIs(t, m.err, context.Canceled)
	require.True(t, m.done)
}

func TestBatchModel_IgnoresOtherKeys(t *testing.T) {
	m := newBatchModel(&entity.BatchJob{JobID: "job-1"}, func() { t.Fatal("unexpected cancel") })
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.Nil(t, cmd)
	require.False(t, model.(batchModel).done)
}
