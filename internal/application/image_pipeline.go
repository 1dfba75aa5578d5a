package app

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// ImageUpload загруженное изображение
type ImageUpload struct {
	Name string    // исходное имя файла
	Data io.Reader // закодированные байты
}

// ImagePipeline декодирует, размечает и сохраняет одно изображение.
type ImagePipeline struct {
	detector  port.Detector
	annotator port.Annotator
	artifacts port.ArtifactStore
	log       *zap.Logger
}

func NewImagePipeline(detector port.Detector, annotator port.Annotator, artifacts port.ArtifactStore, log *zap.Logger) *ImagePipeline {
	return &ImagePipeline{
		detector:  detector,
		annotator: annotator,
		artifacts: artifacts,
		log:       log,
	}
}

// Run обрабатывает изображение. Записи детекций идут в порядке детектора.
// При ошибке на диске ничего не остаётся.
func (p *ImagePipeline) Run(ctx context.Context, upload ImageUpload) (*entity.ImageResult, error) {
	img, format, err := image.Decode(upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrUploadDecode, upload.Name, err)
	}

	detections, err := p.detector.Detect(ctx, img)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrInference, upload.Name, err)
	}

	annotated := p.annotator.Draw(img, detections)

	dir, err := p.artifacts.NewRunDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrArtifactIO, err)
	}
	path := filepath.Join(dir, ImageArtifactName(upload.Name))
	if err := p.artifacts.SaveJPEG(path, annotated); err != nil {
		if rmErr := p.artifacts.RemoveRunDir(dir); rmErr != nil {
			p.log.Warn("failed to remove run directory", zap.String("dir", dir), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrArtifactIO, err)
	}

	p.log.Info("image processed",
		zap.String("name", upload.Name),
		zap.String("format", format),
		zap.Int("detections", len(detections)),
	)

	return &entity.ImageResult{
		AnnotatedImagePath: path,
		Records:            entity.NewDetectionRecords(detections),
	}, nil
}
