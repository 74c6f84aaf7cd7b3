package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu              UserState = "main_menu"               // В главном меню
	StateAwaitingPhoto         UserState = "awaiting_photo"          // Ожидание снимка для полного анализа
	StateAwaitingClassifyPhoto UserState = "awaiting_classify_photo" // Ожидание снимка для классификации
	StateAwaitingQualityPhoto  UserState = "awaiting_quality_photo"  // Ожидание снимка для оценки качества
	StateAwaitingCellsPhoto    UserState = "awaiting_cells_photo"    // Ожидание снимка для поиска клеток
	StateAwaitingStainSource   UserState = "awaiting_stain_source"   // Ожидание исходного снимка для нормализации
	StateAwaitingStainTarget   UserState = "awaiting_stain_target"   // Ожидание эталона окраски
	StateCollectingBatch       UserState = "collecting_batch"        // Сбор снимков для пакетной обработки
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// AwaitsPhoto сообщает, что бот ждёт от пользователя снимок.
func (u *User) AwaitsPhoto() bool {
	return u.State != StateMainMenu
}
