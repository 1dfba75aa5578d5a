package app

import (
	"context"

	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
)

// ProcessingService запускает конвейеры от имени сессии и сохраняет результат.
type ProcessingService struct {
	sessions *SessionService
	results  *ResultStore
	images   *ImagePipeline
	videos   *VideoPipeline
	log      *zap.Logger
}

// NewProcessingService создаёт сервис, который связывает сессии, конвейеры и хранилище результатов.
func NewProcessingService(sessions *SessionService, results *ResultStore, images *ImagePipeline, videos *VideoPipeline, log *zap.Logger) *ProcessingService {
	return &ProcessingService{
		sessions: sessions,
		results:  results,
		images:   images,
		videos:   videos,
		log:      log,
	}
}

// ProcessImage обрабатывает изображение и делает его текущим результатом сессии.
func (s *ProcessingService) ProcessImage(ctx context.Context, sessionID, chatID int64, upload ImageUpload) (*entity.ImageResult, error) {
	if _, err := s.sessions.BeginProcessing(ctx, sessionID, chatID); err != nil {
		return nil, err
	}
	defer s.finish(sessionID, chatID)

	result, err := s.images.Run(ctx, upload)
	if err != nil {
		return nil, err
	}
	if err := s.results.Set(ctx, sessionID, chatID, result); err != nil {
		s.results.releaseReplaced(result, nil)
		return nil, err
	}
	return result, nil
}

// ProcessVideo обрабатывает видео и делает его текущим результатом сессии.
// Временный исходник удаляется и тогда, когда сессия занята.
func (s *ProcessingService) ProcessVideo(ctx context.Context, sessionID, chatID int64, upload VideoUpload, progress ProgressFunc) (*entity.VideoResult, error) {
	if _, err := s.sessions.BeginProcessing(ctx, sessionID, chatID); err != nil {
		if upload.Temporary {
			if rmErr := s.results.artifacts.Remove(upload.Path); rmErr != nil {
				s.log.Warn("failed to remove uploaded video", zap.String("path", upload.Path), zap.Error(rmErr))
			}
		}
		return nil, err
	}
	defer s.finish(sessionID, chatID)

	result, err := s.videos.Run(ctx, upload, progress)
	if err != nil {
		return nil, err
	}
	if err := s.results.Set(ctx, sessionID, chatID, result); err != nil {
		s.results.releaseReplaced(result, nil)
		return nil, err
	}
	return result, nil
}

// finish возвращает сессию в ожидание даже после отмены запроса
func (s *ProcessingService) finish(sessionID, chatID int64) {
	if _, err := s.sessions.FinishProcessing(context.Background(), sessionID, chatID); err != nil {
		s.log.Warn("failed to reset session state", zap.Int64("session", sessionID), zap.Error(err))
	}
}
