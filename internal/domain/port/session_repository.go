package port

import (
	"context"

	"damage-bot/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий
type SessionRepository interface {
	// Get возвращает сессию по ID, создаёт новую если не найдена
	Get(ctx context.Context, sessionID, chatID int64) (*entity.Session, error)

	// UpdateState обновляет состояние сессии
	UpdateState(ctx context.Context, sessionID int64, state entity.SessionState) error

	// SwapResult атомарно заменяет результат сессии и возвращает прежний
	SwapResult(ctx context.Context, sessionID, chatID int64, result entity.ProcessingResult) (entity.ProcessingResult, error)

	// Delete удаляет сессию; следующий Get создаст новую
	Delete(ctx context.Context, sessionID int64) error
}
