package app

import (
	"context"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// UserService состояние диалога пользователя с ботом
type UserService struct {
	repo       port.UserRepository
	workspaces *WorkspaceStore
}

func NewUserService(repo port.UserRepository, workspaces *WorkspaceStore) *UserService {
	return &UserService{repo: repo, workspaces: workspaces}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginAnalysis(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) BeginClassification(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingClassifyPhoto)
}

func (s *UserService) BeginQuality(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingQualityPhoto)
}

func (s *UserService) BeginCells(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingCellsPhoto)
}

func (s *UserService) BeginStain(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingStainSource)
}

func (s *UserService) BeginBatch(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateCollectingBatch)
}

// Cancel возвращает в главное меню и сбрасывает рабочее пространство:
// ответы на запросы в полёте будут отброшены.
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if s.workspaces != nil {
		s.workspaces.Reset(userID)
	}
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
