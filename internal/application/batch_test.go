package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

func TestBatchService_SubmitCollectedFiles(t *testing.T) {
	var submitted []string
	g := &fakeGateway{batch: func(_ context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
		for _, f := range files {
			submitted = append(submitted, f.Name)
		}
		return &entity.BatchJob{JobID: "job-1", Status: entity.BatchPending, TotalFiles: len(files)}, nil
	}}
	n := &fakeNotifier{}
	svc := NewBatchService(g, NewWorkspaceStore(), n, nil, 0)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, 10, nil)
	require.True(t, entity.IsValidation(err))
	require.Equal(t, int32(0), g.calls.Load())

	count, err := svc.AddFile(1, 10, sampleImage("1.png"))
	require.NoError(t, err)
	require.Equal(t, 1, count)
	count, err = svc.AddFile(1, 10, sampleImage("2.png"))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	job, err := svc.Submit(ctx, 1, 10, nil)
	require.NoError(t, err)
	require.Equal(t, "job-1", job.JobID)
	require.Equal(t, []string{"1.png", "2.png"}, submitted)
	require.Empty(t, svc.PendingFiles(1))
	require.Len(t, n.ofKind(port.NotifyInfo), 1)

	current, err := svc.Current(1)
	require.NoError(t, err)
	require.Equal(t, "job-1", current.JobID)
}

func TestBatchService_WaitPollsUntilTerminal(t *testing.T) {
	polls := 0
	g := &fakeGateway{
		batch: func(_ context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
			return &entity.BatchJob{JobID: "job-2", Status: entity.BatchPending, TotalFiles: 5}, nil
		},
		status: func(_ context.Context, jobID string) (*entity.BatchJob, error) {
			require.Equal(t, "job-2", jobID)
			polls++
			job := &entity.BatchJob{JobID: jobID, Status: entity.BatchProcessing, TotalFiles: 5, ProcessedFiles: polls * 2}
			if polls == 3 {
				job.Status = entity.BatchCompleted
				job.ProcessedFiles = 5
			}
			return job, nil
		},
	}
	n := &fakeNotifier{}
	svc := NewBatchService(g, NewWorkspaceStore(), n, nil, 0)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, 10, []entity.ImageFile{sampleImage("a.png")})
	require.NoError(t, err)

	var progress []string
	job, err := svc.Wait(ctx, 1, 10, time.Millisecond, func(j *entity.BatchJob) {
		progress = append(progress, j.FormatProgress())
	})
	require.NoError(t, err)
	require.Equal(t, entity.BatchCompleted, job.Status)
	require.Equal(t, []string{"40.0%", "80.0%", "100.0%"}, progress)
	require.Equal(t, []string{"Batch job job-2 completed"}, n.ofKind(port.NotifySuccess))
}

func TestBatchService_WaitStopsOnPollError(t *testing.T) {
	g := &fakeGateway{
		batch: func(_ context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
			return &entity.BatchJob{JobID: "job-3", Status: entity.BatchPending}, nil
		},
		status: func(context.Context, string) (*entity.BatchJob, error) {
			return nil, errBackend
		},
	}
	svc := NewBatchService(g, NewWorkspaceStore(), &fakeNotifier{}, nil, 0)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, 10, []entity.ImageFile{sampleImage("a.png")})
	require.NoError(t, err)

	_, err = svc.Wait(ctx, 1, 10, time.Millisecond, nil)
	require.ErrorIs(t, err, errBackend)
	// Один запрос на отправку и один неудачный опрос, без повторов
	require.Equal(t, int32(2), g.calls.Load())
}

func TestBatchService_WaitHonorsContext(t *testing.T) {
	g := &fakeGateway{
		batch: func(_ context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
			return &entity.BatchJob{JobID: "job-4", Status: entity.BatchPending}, nil
		},
		status: func(_ context.Context, jobID string) (*entity.BatchJob, error) {
			return &entity.BatchJob{JobID: jobID, Status: entity.BatchProcessing}, nil
		},
	}
	svc := NewBatchService(g, NewWorkspaceStore(), nil, nil, 0)

	_, err := svc.Submit(context.Background(), 1, 10, []entity.ImageFile{sampleImage("a.png")})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	job, err := svc.Wait(ctx, 1, 10, 5*time.Millisecond, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, entity.BatchProcessing, job.Status)
}

func TestBatchService_RefreshWithoutJob(t *testing.T) {
	svc := NewBatchService(&fakeGateway{}, NewWorkspaceStore(), nil, nil, 0)

	_, err := svc.Refresh(context.Background(), 1, 10)
	require.ErrorIs(t, err, entity.ErrNoBatch)
	_, err = svc.Current(1)
	require.ErrorIs(t, err, entity.ErrNoBatch)
}

func TestBatchService_Lookup(t *testing.T) {
	g := &fakeGateway{status: func(_ context.Context, jobID string) (*entity.BatchJob, error) {
		return &entity.BatchJob{JobID: jobID, Status: entity.BatchProcessing, TotalFiles: 4, ProcessedFiles: 1}, nil
	}}
	svc := NewBatchService(g, NewWorkspaceStore(), nil, nil, 0)

	_, err := svc.Lookup(context.Background(), 10, "  ")
	require.True(t, entity.IsValidation(err))
	require.Equal(t, int32(0), g.calls.Load())

	job, err := svc.Lookup(context.Background(), 10, " job-9 ")
	require.NoError(t, err)
	require.Equal(t, "job-9", job.JobID)

	// Разовый запрос не трогает текущее задание пользователя
	_, err = svc.Current(1)
	require.ErrorIs(t, err, entity.ErrNoBatch)
}
