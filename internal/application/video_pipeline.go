package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// VideoState стадия обработки видео
type VideoState string

const (
	VideoOpening    VideoState = "opening"
	VideoStreaming  VideoState = "streaming"
	VideoFinalizing VideoState = "finalizing"
	VideoDone       VideoState = "done"
	VideoFailed     VideoState = "failed"
)

// VideoUpload видеофайл, уже лежащий на диске
type VideoUpload struct {
	Name      string // исходное имя файла
	Path      string // где лежит
	Temporary bool   // удалить после обработки
}

// ProgressFunc получает прогресс после каждого кадра
type ProgressFunc func(entity.Progress)

// VideoPipeline покадрово размечает видео, собирая кадры с повреждениями.
type VideoPipeline struct {
	codec     port.VideoCodec
	detector  port.Detector
	annotator port.Annotator
	artifacts port.ArtifactStore
	log       *zap.Logger
}

func NewVideoPipeline(codec port.VideoCodec, detector port.Detector, annotator port.Annotator, artifacts port.ArtifactStore, log *zap.Logger) *VideoPipeline {
	return &VideoPipeline{
		codec:     codec,
		detector:  detector,
		annotator: annotator,
		artifacts: artifacts,
		log:       log,
	}
}

// Run обрабатывает видео целиком. Отмена ctx проверяется между кадрами.
// При любой ошибке файлы запуска удаляются, а ридер и райтер закрываются.
func (p *VideoPipeline) Run(ctx context.Context, upload VideoUpload, progress ProgressFunc) (*entity.VideoResult, error) {
	run := &videoRun{
		pipeline: p,
		upload:   upload,
		progress: progress,
		log:      p.log.With(zap.String("video", upload.Name)),
	}

	run.enter(VideoOpening)
	if err := run.open(); err != nil {
		return nil, run.fail(err)
	}

	run.enter(VideoStreaming)
	if err := run.stream(ctx); err != nil {
		return nil, run.fail(err)
	}

	run.enter(VideoFinalizing)
	if err := run.finalize(); err != nil {
		return nil, run.fail(err)
	}

	run.enter(VideoDone)
	run.log.Info("video processed",
		zap.Int("frames", run.processed),
		zap.Int("damage_frames", len(run.framePaths)),
	)

	return &entity.VideoResult{
		AnnotatedVideoPath: run.outputPath,
		DamageFramePaths:   run.framePaths,
		FrameCount:         run.processed,
		FPS:                run.props.FPS,
	}, nil
}

type videoRun struct {
	pipeline *VideoPipeline
	upload   VideoUpload
	progress ProgressFunc
	log      *zap.Logger

	state      VideoState
	props      port.VideoProps
	reader     port.VideoReader
	writer     port.VideoWriter
	runDir     string
	outputPath string
	framePaths []string
	processed  int
}

func (r *videoRun) enter(state VideoState) {
	r.state = state
	r.log.Debug("video pipeline state", zap.String("state", string(state)), zap.Int("frames", r.processed))
}

func (r *videoRun) open() error {
	reader, err := r.pipeline.codec.Open(r.upload.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", entity.ErrVideoOpen, r.upload.Name, err)
	}
	r.reader = reader
	r.props = reader.Props()

	dir, err := r.pipeline.artifacts.NewRunDir()
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrArtifactIO, err)
	}
	r.runDir = dir

	r.outputPath = filepath.Join(dir, VideoArtifactName(r.upload.Name))
	writer, err := r.pipeline.codec.Create(r.outputPath, r.props)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrArtifactIO, err)
	}
	r.writer = writer
	return nil
}

func (r *videoRun) stream(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d frames: %w", entity.ErrCancelled, r.processed, err)
		}

		frame, err := r.reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: frame %d: %w", entity.ErrUploadDecode, r.processed, err)
		}

		detections, err := r.pipeline.detector.Detect(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w after %d frames: %w", entity.ErrCancelled, r.processed, ctx.Err())
			}
			return fmt.Errorf("%w: frame %d: %w", entity.ErrInference, r.processed, err)
		}

		annotated := r.pipeline.annotator.Draw(frame, detections)
		if len(detections) > 0 {
			path := filepath.Join(r.runDir, DamageFrameName(r.processed))
			if err := r.pipeline.artifacts.SaveJPEG(path, annotated); err != nil {
				return fmt.Errorf("%w: %w", entity.ErrArtifactIO, err)
			}
			r.framePaths = append(r.framePaths, path)
		}

		if err := r.writer.Write(annotated); err != nil {
			return fmt.Errorf("%w: frame %d: %w", entity.ErrArtifactIO, r.processed, err)
		}

		r.processed++
		if r.progress != nil {
			r.progress(entity.NewProgress(r.processed, r.props.FrameCount))
		}
	}
}

func (r *videoRun) finalize() error {
	err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", entity.ErrArtifactIO, r.outputPath, err)
	}

	if err := r.reader.Close(); err != nil {
		r.log.Warn("failed to close video reader", zap.Error(err))
	}
	r.reader = nil

	r.releaseSource()
	return nil
}

func (r *videoRun) fail(err error) error {
	r.enter(VideoFailed)

	if r.writer != nil {
		if closeErr := r.writer.Close(); closeErr != nil {
			r.log.Warn("failed to close video writer", zap.Error(closeErr))
		}
		r.writer = nil
	}
	if r.reader != nil {
		if closeErr := r.reader.Close(); closeErr != nil {
			r.log.Warn("failed to close video reader", zap.Error(closeErr))
		}
		r.reader = nil
	}
	if r.runDir != "" {
		if rmErr := r.pipeline.artifacts.RemoveRunDir(r.runDir); rmErr != nil {
			r.log.Warn("failed to remove run directory", zap.String("dir", r.runDir), zap.Error(rmErr))
		}
	}
	r.releaseSource()

	r.log.Error("video processing failed", zap.Int("frames", r.processed), zap.Error(err))
	return err
}

func (r *videoRun) releaseSource() {
	if !r.upload.Temporary {
		return
	}
	if err := r.pipeline.artifacts.Remove(r.upload.Path); err != nil {
		r.log.Warn("failed to remove uploaded video", zap.String("path", r.upload.Path), zap.Error(err))
	}
}
