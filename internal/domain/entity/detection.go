package entity

import (
	"fmt"
	"image"
)

// BBox ограничивающая рамка в пикселях кадра
type BBox struct {
	XMin int // левая граница
	YMin int // верхняя граница
	XMax int // правая граница
	YMax int // нижняя граница
}

// NewBBox строит рамку из дробных координат детектора.
// Координаты усекаются к нулю, перевёрнутые углы меняются местами.
func NewBBox(x1, y1, x2, y2 float64) BBox {
	b := BBox{XMin: int(x1), YMin: int(y1), XMax: int(x2), YMax: int(y2)}
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}

// Rect возвращает рамку как image.Rectangle
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// String форматирует рамку как "[x_min, y_min, x_max, y_max]"
func (b BBox) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Detection одно срабатывание детектора на кадре
type Detection struct {
	Label      string  // тип повреждения
	Confidence float64 // уверенность, 0..1
	Box        BBox
}

// DetectionRecord строка таблицы результатов для изображения
type DetectionRecord struct {
	Index      int    // порядковый номер, с 1
	Label      string // тип повреждения
	Confidence string // уверенность, два знака после запятой
	BBox       string // "[x_min, y_min, x_max, y_max]"
}

// NewDetectionRecords строит таблицу в порядке выдачи детектора, без сортировки.
func NewDetectionRecords(detections []Detection) []DetectionRecord {
	records := make([]DetectionRecord, 0, len(detections))
	for i, d := range detections {
		records = append(records, DetectionRecord{
			Index:      i + 1,
			Label:      d.Label,
			Confidence: fmt.Sprintf("%.2f", d.Confidence),
			BBox:       d.Box.String(),
		})
	}
	return records
}
