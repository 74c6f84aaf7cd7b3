package storage

import (
	"context"
	"sync"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище состояния диалога.
// Наружу отдаются копии, поэтому обработчики разных сообщений не делят один объект.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}

	return &user, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = *user
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
		r.users[userID] = user
	}

	return nil
}

// Delete удаляет пользователя
func (r *MemoryUserRepository) Delete(ctx context.Context, userID int64) error {
	r.mu.Lock()
	delete(r.users, userID)
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
