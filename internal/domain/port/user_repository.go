package port

import (
	"context"

	"cyto-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища состояния диалога
type UserRepository interface {
	// Get возвращает копию пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error

	// Delete забывает пользователя
	Delete(ctx context.Context, userID int64) error
}
