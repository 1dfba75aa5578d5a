package entity

// SessionState состояние сессии чата
type SessionState string

const (
	StateIdle       SessionState = "idle"       // ждём файл
	StateProcessing SessionState = "processing" // идёт обработка
)

// Session сессия чата. Хранит не больше одного результата.
type Session struct {
	ID     int64            // Telegram Chat ID, он же ключ сессии
	ChatID int64            // куда отвечать
	State  SessionState     // текущее состояние
	Result ProcessingResult // текущий результат, nil если его нет
}

// NewSession создаёт пустую сессию в состоянии ожидания
func NewSession(id, chatID int64) *Session {
	return &Session{
		ID:     id,
		ChatID: chatID,
		State:  StateIdle,
	}
}

// SetState обновляет состояние сессии
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// SetResult полностью заменяет текущий результат
func (s *Session) SetResult(result ProcessingResult) {
	s.Result = result
}
