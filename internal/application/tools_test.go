package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

func TestToolService_QualityAndCellsRunIndependently(t *testing.T) {
	qualityStarted := make(chan struct{})
	release := make(chan struct{})
	g := &fakeGateway{
		quality: func(context.Context, entity.ImageFile) (*entity.QualityAssessment, error) {
			close(qualityStarted)
			<-release
			return &entity.QualityAssessment{QualityScore: 80, QualityLevel: entity.QualityGood}, nil
		},
		cells: func(context.Context, entity.ImageFile) (*entity.MultiCellDetectionResult, error) {
			return &entity.MultiCellDetectionResult{TotalCells: 3}, nil
		},
	}
	store := NewWorkspaceStore()
	svc := NewToolService(g, store, &fakeNotifier{}, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.AssessQuality(ctx, 1, 10, sampleImage("a.png"))
		done <- err
	}()
	<-qualityStarted

	// Поиск клеток не ждёт оценки качества
	cells, err := svc.DetectCells(ctx, 1, 10, sampleImage("a.png"))
	require.NoError(t, err)
	require.Equal(t, 3, cells.TotalCells)

	_, err = svc.AssessQuality(ctx, 1, 10, sampleImage("a.png"))
	require.ErrorIs(t, err, entity.ErrActionBusy)

	close(release)
	require.NoError(t, <-done)

	snap := store.Get(1).Snapshot()
	require.Equal(t, 80.0, snap.Quality.QualityScore)
	require.Equal(t, 3, snap.Cells.TotalCells)
}

func TestToolService_StainTwoSteps(t *testing.T) {
	var gotSource, gotTarget string
	g := &fakeGateway{stain: func(_ context.Context, file, target entity.ImageFile) (*entity.StainNormalization, error) {
		gotSource, gotTarget = file.Name, target.Name
		return &entity.StainNormalization{NormalizedImage: "bm9ybQ=="}, nil
	}}
	svc := NewToolService(g, NewWorkspaceStore(), &fakeNotifier{}, nil)
	ctx := context.Background()

	_, err := svc.NormalizeStain(ctx, 1, 10, sampleImage("ref.png"))
	require.True(t, entity.IsValidation(err))
	require.Equal(t, int32(0), g.calls.Load())

	require.NoError(t, svc.SelectStainSource(1, sampleImage("src.png")))
	res, err := svc.NormalizeStain(ctx, 1, 10, sampleImage("ref.png"))
	require.NoError(t, err)
	require.Equal(t, "bm9ybQ==", res.NormalizedImage)
	require.Equal(t, "src.png", gotSource)
	require.Equal(t, "ref.png", gotTarget)
}

func TestToolService_FailureNotifies(t *testing.T) {
	g := &fakeGateway{quality: func(context.Context, entity.ImageFile) (*entity.QualityAssessment, error) {
		return nil, errBackend
	}}
	n := &fakeNotifier{}
	svc := NewToolService(g, NewWorkspaceStore(), n, nil)

	_, err := svc.AssessQuality(context.Background(), 1, 10, sampleImage("a.png"))
	require.ErrorIs(t, err, errBackend)
	require.Equal(t, []string{errBackend.Error()}, n.ofKind(port.NotifyError))
}

func TestToolService_RejectsEmptyFile(t *testing.T) {
	g := &fakeGateway{}
	svc := NewToolService(g, NewWorkspaceStore(), nil, nil)

	_, err := svc.AssessQuality(context.Background(), 1, 10, entity.ImageFile{})
	require.True(t, entity.IsValidation(err))
	_, err = svc.DetectCells(context.Background(), 1, 10, entity.ImageFile{})
	require.True(t, entity.IsValidation(err))
	require.Error(t, svc.SelectStainSource(1, entity.ImageFile{}))
	require.Equal(t, int32(0), g.calls.Load())
}
