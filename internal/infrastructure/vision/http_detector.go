package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/pkg/errors"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// HTTPDetector отправляет кадр во внешний сервис инференса
type HTTPDetector struct {
	inferenceURL  string
	minConfidence float64
	client        *http.Client
}

type httpDetection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // x_min, y_min, x_max, y_max
}

// NewHTTPDetector создаёт адаптер к сервису инференса
func NewHTTPDetector(inferenceURL string, minConfidence float64, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		inferenceURL:  inferenceURL,
		minConfidence: minConfidence,
		client:        &http.Client{Timeout: timeout},
	}
}

// Detect кодирует кадр в JPEG и отправляет его multipart-запросом.
// Детекции ниже порога отбрасываются, порядок остальных сохраняется.
func (d *HTTPDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if err := jpeg.Encode(part, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []httpDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	detections := make([]entity.Detection, 0, len(result.Detections))
	for _, det := range result.Detections {
		if det.Confidence < d.minConfidence {
			continue
		}
		detections = append(detections, entity.Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box:        entity.NewBBox(det.BBox[0], det.BBox[1], det.BBox[2], det.BBox[3]),
		})
	}

	return detections, nil
}

// CheckHealth проверяет доступность сервиса по соседнему пути /health
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	u, err := url.Parse(d.inferenceURL)
	if err != nil {
		return errors.Wrap(err, "parse inference url")
	}
	u.Path = path.Join(path.Dir(u.Path), "health")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.Detector = (*HTTPDetector)(nil)
