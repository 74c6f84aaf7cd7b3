package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/infrastructure/storage"
)

func TestUserService_BeginAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo, NewWorkspaceStore())
	ctx := context.Background()

	user, err := svc.BeginAnalysis(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo, nil)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateAwaitingStainTarget)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingStainTarget, user.State)

	stored, err := svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingStainTarget, stored.State)
}

func TestUserService_BeginStates(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository(), nil)
	ctx := context.Background()

	cases := []struct {
		begin func(context.Context, int64, int64) (*entity.User, error)
		want  entity.UserState
	}{
		{svc.BeginClassification, entity.StateAwaitingClassifyPhoto},
		{svc.BeginQuality, entity.StateAwaitingQualityPhoto},
		{svc.BeginCells, entity.StateAwaitingCellsPhoto},
		{svc.BeginStain, entity.StateAwaitingStainSource},
		{svc.BeginBatch, entity.StateCollectingBatch},
	}
	for _, tc := range cases {
		user, err := tc.begin(ctx, 3, 30)
		require.NoError(t, err)
		require.Equal(t, tc.want, user.State)
	}
}

func TestUserService_CancelResetsWorkspace(t *testing.T) {
	store := NewWorkspaceStore()
	svc := NewUserService(storage.NewMemoryUserRepository(), store)

	before := store.Get(4).Snapshot().Epoch
	_, err := svc.Cancel(context.Background(), 4, 40)
	require.NoError(t, err)
	require.Equal(t, before+1, store.Get(4).Snapshot().Epoch)
}
