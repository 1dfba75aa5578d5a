//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// ONNXDetector запускает YOLOv8-модель повреждений через OpenCV DNN
type ONNXDetector struct {
	net                 gocv.Net
	labels              []string
	inputSize           image.Point
	confidenceThreshold float32
	nmsThreshold        float32
	mu                  sync.Mutex
}

// NewONNXDetector загружает модель. Имена классов берутся из cfg.Labels в порядке обучения.
func NewONNXDetector(cfg ONNXConfig) (*ONNXDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, errors.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, errors.Errorf("failed to load onnx model: %s", cfg.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set backend")
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set target")
	}

	return &ONNXDetector{
		net:                 net,
		labels:              cfg.Labels,
		inputSize:           image.Pt(cfg.InputSize, cfg.InputSize),
		confidenceThreshold: cfg.ConfidenceThreshold,
		nmsThreshold:        cfg.NMSThreshold,
	}, nil
}

// Detect прогоняет кадр через сеть. Результат упорядочен по убыванию уверенности.
func (d *ONNXDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	// сеть хранит состояние входа, параллельные вызовы сериализуются
	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// Выход YOLOv8: [1, 4+классы, кандидаты]
	dims := output.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}
	rows, candidates := dims[1], dims[2]
	table := output.Reshape(1, rows)
	defer table.Close()

	scaleX := float32(mat.Cols()) / float32(d.inputSize.X)
	scaleY := float32(mat.Rows()) / float32(d.inputSize.Y)

	var found []scored
	for i := 0; i < candidates; i++ {
		classID, score := 0, float32(0)
		for c := 4; c < rows; c++ {
			if s := table.GetFloatAt(c, i); s > score {
				classID, score = c-4, s
			}
		}
		if score < d.confidenceThreshold {
			continue
		}

		cx, cy := table.GetFloatAt(0, i), table.GetFloatAt(1, i)
		w, h := table.GetFloatAt(2, i), table.GetFloatAt(3, i)
		found = append(found, scored{
			score:   score,
			classID: classID,
			rect: image.Rect(
				int((cx-w/2)*scaleX), int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX), int((cy+h/2)*scaleY),
			).Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows())),
		})
	}

	kept := suppress(found, d.nmsThreshold)
	detections := make([]entity.Detection, 0, len(kept))
	for _, k := range kept {
		detections = append(detections, entity.Detection{
			Label:      d.label(k.classID),
			Confidence: float64(k.score),
			Box:        entity.BBox{XMin: k.rect.Min.X, YMin: k.rect.Min.Y, XMax: k.rect.Max.X, YMax: k.rect.Max.Y},
		})
	}
	return detections, nil
}

// Close освобождает сеть
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func (d *ONNXDetector) label(classID int) string {
	if classID >= 0 && classID < len(d.labels) {
		return d.labels[classID]
	}
	return "damage"
}

type scored struct {
	rect    image.Rectangle
	score   float32
	classID int
}

// suppress жадный NMS по классам
func suppress(candidates []scored, threshold float32) []scored {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var kept []scored
	used := make([]bool, len(candidates))
	for i := range candidates {
		if used[i] {
			continue
		}
		kept = append(kept, candidates[i])
		for j := i + 1; j < len(candidates); j++ {
			if !used[j] && candidates[j].classID == candidates[i].classID &&
				iou(candidates[i].rect, candidates[j].rect) > threshold {
				used[j] = true
			}
		}
	}
	return kept
}

func iou(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - ia
	if union <= 0 {
		return 0
	}
	return float32(ia) / float32(union)
}

// Проверка реализации интерфейса
var _ port.Detector = (*ONNXDetector)(nil)
