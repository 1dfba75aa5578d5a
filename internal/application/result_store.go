package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// ResultStore хранит последний результат каждой сессии и владеет его файлами.
// Изображение живёт до первой выдачи, видео до замены или конца сессии.
type ResultStore struct {
	sessions  port.SessionRepository
	artifacts port.ArtifactStore
	log       *zap.Logger
	mu        sync.Mutex
}

func NewResultStore(sessions port.SessionRepository, artifacts port.ArtifactStore, log *zap.Logger) *ResultStore {
	return &ResultStore{sessions: sessions, artifacts: artifacts, log: log}
}

// Set полностью заменяет результат сессии. Файлы прежнего результата,
// на которые новый не ссылается, удаляются.
func (s *ResultStore) Set(ctx context.Context, sessionID, chatID int64, result entity.ProcessingResult) error {
	s.mu.Lock()
	previous, err := s.sessions.SwapResult(ctx, sessionID, chatID, result)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Debug("result stored", zap.Int64("session", sessionID), zap.String("kind", string(result.Kind())))
	s.releaseReplaced(previous, result)
	return nil
}

// Get возвращает текущий результат. Повторные вызовы без Set дают то же самое.
func (s *ResultStore) Get(ctx context.Context, sessionID, chatID int64) (entity.ProcessingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(ctx, sessionID, chatID)
	if err != nil {
		return nil, err
	}
	if session.Result == nil {
		return nil, entity.ErrNoResult
	}
	return session.Result, nil
}

// ConsumeImageArtifact удаляет показанное изображение и очищает результат
// сессии, если она всё ещё держит именно его. Если сессия уже получила новый
// результат, он не трогается: файлы показанного удалил Set.
func (s *ResultStore) ConsumeImageArtifact(ctx context.Context, sessionID, chatID int64, shown *entity.ImageResult) error {
	if shown == nil {
		return fmt.Errorf("%w: nothing to consume in session %d", entity.ErrNoResult, sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(ctx, sessionID, chatID)
	if err != nil {
		return err
	}
	if current, ok := session.Result.(*entity.ImageResult); !ok || current != shown {
		s.log.Debug("consumed image was already replaced", zap.Int64("session", sessionID), zap.String("path", shown.AnnotatedImagePath))
		s.removeRunDir(filepath.Dir(shown.AnnotatedImagePath))
		return nil
	}

	if err := s.artifacts.Remove(shown.AnnotatedImagePath); err != nil {
		return fmt.Errorf("%w: remove %s: %w", entity.ErrArtifactIO, shown.AnnotatedImagePath, err)
	}
	s.removeRunDir(filepath.Dir(shown.AnnotatedImagePath))

	_, err = s.sessions.SwapResult(ctx, sessionID, chatID, nil)
	return err
}

// PackageFramesAsArchive собирает zip из кадров и отдаёт путь к архиву в deliver.
// Архив удаляется после deliver при любом исходе.
func (s *ResultStore) PackageFramesAsArchive(paths []string, deliver func(archivePath string) error) error {
	archivePath, err := s.artifacts.PackageZip(paths)
	if err != nil {
		return fmt.Errorf("%w: package %d frames: %w", entity.ErrArtifactIO, len(paths), err)
	}
	defer func() {
		if err := s.artifacts.Remove(archivePath); err != nil {
			s.log.Warn("failed to remove archive", zap.String("path", archivePath), zap.Error(err))
		}
	}()

	if err := deliver(archivePath); err != nil {
		return fmt.Errorf("deliver archive: %w", err)
	}
	return nil
}

// Release завершает сессию: удаляет её результат вместе с файлами и саму сессию.
func (s *ResultStore) Release(ctx context.Context, sessionID, chatID int64) error {
	s.mu.Lock()
	previous, err := s.sessions.SwapResult(ctx, sessionID, chatID, nil)
	if err == nil {
		err = s.sessions.Delete(ctx, sessionID)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.releaseReplaced(previous, nil)
	return nil
}

func (s *ResultStore) releaseReplaced(previous, next entity.ProcessingResult) {
	if previous == nil {
		return
	}

	keep := make(map[string]struct{})
	if next != nil {
		for _, path := range next.Artifacts() {
			keep[filepath.Dir(path)] = struct{}{}
		}
	}

	released := make(map[string]struct{})
	for _, path := range previous.Artifacts() {
		dir := filepath.Dir(path)
		if _, ok := keep[dir]; ok {
			continue
		}
		if _, ok := released[dir]; ok {
			continue
		}
		released[dir] = struct{}{}
		s.removeRunDir(dir)
	}
}

func (s *ResultStore) removeRunDir(dir string) {
	if err := s.artifacts.RemoveRunDir(dir); err != nil {
		s.log.Warn("failed to remove run directory", zap.String("dir", dir), zap.Error(err))
	}
}
