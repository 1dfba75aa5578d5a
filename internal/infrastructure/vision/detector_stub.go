//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"damage-bot/internal/domain/entity"
)

// ONNXDetector заглушка для сборки без OpenCV
type ONNXDetector struct{}

// NewONNXDetector возвращает ошибку, если сборка без тега gocv.
func NewONNXDetector(cfg ONNXConfig) (*ONNXDetector, error) {
	_ = cfg
	return nil, errGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *ONNXDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	_ = ctx
	_ = frame
	return nil, errGoCVDisabled
}

// Close ничего не делает
func (d *ONNXDetector) Close() error {
	return nil
}

var errGoCVDisabled = errors.New("gocv build tag is not enabled")
