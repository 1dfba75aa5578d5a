package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"damage-bot/config"
	telegram "damage-bot/internal/api"
	"damage-bot/internal/container"
	"damage-bot/internal/domain/port"
	"damage-bot/internal/infrastructure/storage"
	"damage-bot/internal/infrastructure/vision"
	"damage-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync(logg)

	if err := cfg.Validate(); err != nil {
		logg.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище файлов результатов
	artifacts, err := storage.NewFileArtifactStore(cfg.OutputDir)
	if err != nil {
		logg.Fatal("failed to prepare artifact dir", zap.Error(err))
	}
	logg.Info("artifacts directory", zap.String("path", artifacts.Root()))

	detector, closeDetector, err := newDetector(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to create detector", zap.Error(err))
	}
	defer closeDetector()

	// Собираем сервисы приложения
	appContainer := container.New(container.Dependencies{
		Sessions:  storage.NewMemorySessionRepository(),
		Artifacts: artifacts,
		Detector:  detector,
		Annotator: vision.NewBoxAnnotator(),
		Codec:     vision.NewGoCVCodec(),
		Logger:    logg,
	})

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, telegram.Options{
		PreviewLimit:   cfg.PreviewLimit,
		PreviewMaxSide: uint(cfg.PreviewMaxSide),
		ProgressStep:   cfg.ProgressStep,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, logg.Named("bot"))
	if err != nil {
		logg.Fatal("failed to create bot", zap.Error(err))
	}

	logg.Info("bot is running", zap.String("detector", cfg.Detector))
	if err := bot.Run(ctx); err != nil {
		logg.Error("bot stopped", zap.Error(err))
		return
	}
	logg.Info("bot stopped")
}

// newDetector выбирает детектор по конфигу. Недоступный сервис инференса
// на старте не фатален.
func newDetector(ctx context.Context, cfg *config.Config, logg *zap.Logger) (port.Detector, func(), error) {
	switch cfg.Detector {
	case config.DetectorONNX:
		onnxCfg := vision.DefaultONNXConfig(cfg.ModelPath)
		if len(cfg.Labels) > 0 {
			onnxCfg.Labels = cfg.Labels
		}
		onnxCfg.ConfidenceThreshold = float32(cfg.ConfidenceThreshold)
		onnxCfg.NMSThreshold = float32(cfg.NMSThreshold)

		detector, err := vision.NewONNXDetector(onnxCfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := detector.Close(); err != nil {
				logg.Warn("failed to close detector", zap.Error(err))
			}
		}
		return detector, closeFn, nil

	default:
		detector := vision.NewHTTPDetector(cfg.InferenceURL, cfg.ConfidenceThreshold, cfg.InferenceTimeout)

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := detector.CheckHealth(healthCtx); err != nil {
			logg.Warn("inference service is not healthy", zap.String("url", cfg.InferenceURL), zap.Error(err))
		}
		return detector, func() {}, nil
	}
}
