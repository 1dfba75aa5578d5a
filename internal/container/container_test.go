package container

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "damage-bot/internal/application"
	"damage-bot/internal/domain/entity"
	"damage-bot/internal/infrastructure/storage"
	"damage-bot/internal/infrastructure/vision"
)

type stubDetector struct{}

func (stubDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	return []entity.Detection{{Label: "scratch", Confidence: 0.7, Box: entity.BBox{XMin: 1, YMin: 1, XMax: 10, YMax: 10}}}, nil
}

func TestNew_WiresImageFlow(t *testing.T) {
	artifacts, err := storage.NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)

	c := New(Dependencies{
		Sessions:  storage.NewMemorySessionRepository(),
		Artifacts: artifacts,
		Detector:  stubDetector{},
		Annotator: vision.NewBoxAnnotator(),
		Codec:     vision.NewGoCVCodec(),
		Logger:    zap.NewNop(),
	})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))

	ctx := context.Background()
	result, err := c.ProcessingService.ProcessImage(ctx, 5, 5, app.ImageUpload{Name: "car.png", Data: &buf})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	require.NoError(t, c.ResultStore.ConsumeImageArtifact(ctx, 5, 5, result))
	require.NoFileExists(t, result.AnnotatedImagePath)
}
