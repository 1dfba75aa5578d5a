package port

import (
	"context"
	"image"

	"damage-bot/internal/domain/entity"
)

// Detector интерфейс внешней модели поиска повреждений
type Detector interface {
	// Detect ищет повреждения на кадре. Порядок результата задаёт модель.
	Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error)
}

// Annotator рисует детекции на копии кадра
type Annotator interface {
	// Draw возвращает новый кадр, исходный не изменяется
	Draw(frame image.Image, detections []entity.Detection) *image.RGBA
}
