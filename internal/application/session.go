package app

import (
	"context"
	"sync"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

type SessionService struct {
	repo port.SessionRepository
	mu   sync.Mutex
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, sessionID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, sessionID, chatID)
}

func (s *SessionService) SetState(ctx context.Context, sessionID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.Get(ctx, sessionID, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, sessionID, state); err != nil {
		return nil, err
	}
	session.SetState(state)

	return session, nil
}

// BeginProcessing переводит сессию в обработку. Вторая загрузка в ту же
// сессию до окончания первой получает ErrSessionBusy.
func (s *SessionService) BeginProcessing(ctx context.Context, sessionID, chatID int64) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.Get(ctx, sessionID, chatID)
	if err != nil {
		return nil, err
	}
	if session.State == entity.StateProcessing {
		return nil, entity.ErrSessionBusy
	}

	if err := s.repo.UpdateState(ctx, sessionID, entity.StateProcessing); err != nil {
		return nil, err
	}
	session.SetState(entity.StateProcessing)

	return session, nil
}

func (s *SessionService) FinishProcessing(ctx context.Context, sessionID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, sessionID, chatID, entity.StateIdle)
}
