package vision

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
)

// palette цвета рамок, выбираются по типу повреждения
var palette = []color.RGBA{
	{R: 255, G: 56, B: 56, A: 255},
	{R: 255, G: 157, B: 151, A: 255},
	{R: 255, G: 112, B: 31, A: 255},
	{R: 255, G: 178, B: 29, A: 255},
	{R: 207, G: 210, B: 49, A: 255},
	{R: 72, G: 249, B: 10, A: 255},
	{R: 26, G: 147, B: 52, A: 255},
	{R: 0, G: 212, B: 187, A: 255},
	{R: 44, G: 153, B: 168, A: 255},
	{R: 0, G: 194, B: 255, A: 255},
	{R: 52, G: 69, B: 147, A: 255},
	{R: 100, G: 115, B: 255, A: 255},
	{R: 132, G: 56, B: 255, A: 255},
	{R: 255, G: 55, B: 199, A: 255},
}

// BoxAnnotator рисует рамки и подписи детекций
type BoxAnnotator struct {
	Thickness int       // толщина рамки в пикселях
	Padding   int       // отступ текста внутри плашки
	Face      font.Face // шрифт подписи
}

// NewBoxAnnotator создаёт аннотатор с настройками по умолчанию
func NewBoxAnnotator() *BoxAnnotator {
	return &BoxAnnotator{
		Thickness: 2,
		Padding:   2,
		Face:      basicfont.Face7x13,
	}
}

// Draw рисует детекции на копии кадра. Без детекций возвращается
// точная копия исходного кадра.
func (a *BoxAnnotator) Draw(frame image.Image, detections []entity.Detection) *image.RGBA {
	out := cloneRGBA(frame)
	origin := out.Bounds().Min

	for _, d := range detections {
		c := labelColor(d.Label)
		a.drawBox(out, d.Box.Rect().Add(origin), c)

		bg := a.labelRect(d).Add(origin)
		draw.Draw(out, bg, image.NewUniform(c), image.Point{}, draw.Src)

		drawer := font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(textColor(c)),
			Face: a.Face,
			Dot:  fixed.P(bg.Min.X+a.Padding, bg.Min.Y+a.Padding+a.Face.Metrics().Ascent.Ceil()),
		}
		drawer.DrawString(labelText(d))
	}

	return out
}

// drawBox рисует контур рамки; всё, что выходит за кадр, отсекается.
func (a *BoxAnnotator) drawBox(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	t := a.Thickness
	src := image.NewUniform(c)
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, side := range sides {
		draw.Draw(dst, side.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// labelRect плашка подписи над левым верхним углом рамки.
// Если плашка не помещается над рамкой, она опускается к y_min.
func (a *BoxAnnotator) labelRect(d entity.Detection) image.Rectangle {
	m := a.Face.Metrics()
	width := font.MeasureString(a.Face, labelText(d)).Ceil() + 2*a.Padding
	height := (m.Ascent + m.Descent).Ceil() + 2*a.Padding

	top := d.Box.YMin - height
	if top < 0 {
		top = d.Box.YMin
	}
	return image.Rect(d.Box.XMin, top, d.Box.XMin+width, top+height)
}

func labelText(d entity.Detection) string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

func labelColor(label string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	return palette[h.Sum32()%uint32(len(palette))]
}

// textColor выбирает чёрный или белый текст по яркости плашки
func textColor(bg color.RGBA) color.RGBA {
	luma := (299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)) / 1000
	if luma > 140 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func cloneRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// Проверка реализации интерфейса
var _ port.Annotator = (*BoxAnnotator)(nil)
