package storage

import (
	"context"
	"sync"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий.
// Наружу отдаются копии, чтобы конкурентные обработчики не делили одну структуру.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.Session),
	}
}

// Get возвращает сессию по ID, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, sessionID, chatID int64) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[sessionID]
	r.mu.RUnlock()

	if exists {
		return copySession(session), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Сессию мог создать параллельный обработчик
	if session, exists := r.sessions[sessionID]; exists {
		return copySession(session), nil
	}

	session = entity.NewSession(sessionID, chatID)
	r.sessions[sessionID] = session

	return copySession(session), nil
}

// UpdateState обновляет состояние сессии
func (r *MemorySessionRepository) UpdateState(ctx context.Context, sessionID int64, state entity.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[sessionID]; exists {
		session.SetState(state)
	}

	return nil
}

// SwapResult заменяет результат и возвращает прежний
func (r *MemorySessionRepository) SwapResult(ctx context.Context, sessionID, chatID int64, result entity.ProcessingResult) (entity.ProcessingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		session = entity.NewSession(sessionID, chatID)
		r.sessions[sessionID] = session
	}
	previous := session.Result
	session.SetResult(result)

	return previous, nil
}

// Delete удаляет сессию
func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID int64) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	return nil
}

// Результаты после записи не меняются, поэтому достаточно поверхностной копии.
func copySession(s *entity.Session) *entity.Session {
	c := *s
	return &c
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
