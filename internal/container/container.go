package container

import (
	"go.uber.org/zap"

	app "damage-bot/internal/application"
	"damage-bot/internal/domain/port"
)

type Container struct {
	SessionService    *app.SessionService
	ResultStore       *app.ResultStore
	ProcessingService *app.ProcessingService
}

// Dependencies внешние реализации портов
type Dependencies struct {
	Sessions  port.SessionRepository
	Artifacts port.ArtifactStore
	Detector  port.Detector
	Annotator port.Annotator
	Codec     port.VideoCodec
	Logger    *zap.Logger
}

func New(deps Dependencies) *Container {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sessionService := app.NewSessionService(deps.Sessions)
	resultStore := app.NewResultStore(deps.Sessions, deps.Artifacts, log.Named("results"))
	images := app.NewImagePipeline(deps.Detector, deps.Annotator, deps.Artifacts, log.Named("image"))
	videos := app.NewVideoPipeline(deps.Codec, deps.Detector, deps.Annotator, deps.Artifacts, log.Named("video"))
	processingService := app.NewProcessingService(sessionService, resultStore, images, videos, log.Named("processing"))

	return &Container{
		SessionService:    sessionService,
		ResultStore:       resultStore,
		ProcessingService: processingService,
	}
}
