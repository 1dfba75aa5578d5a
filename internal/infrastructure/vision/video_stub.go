//go:build !gocv
// +build !gocv

package vision

import "damage-bot/internal/domain/port"

// GoCVCodec заглушка для сборки без OpenCV
type GoCVCodec struct {
	FourCC     string
	DefaultFPS float64
}

// NewGoCVCodec создаёт кодек-заглушку (без OpenCV).
func NewGoCVCodec() *GoCVCodec {
	return &GoCVCodec{FourCC: OutputFourCC, DefaultFPS: 25}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCodec) Open(path string) (port.VideoReader, error) {
	_ = path
	return nil, errGoCVDisabled
}

// Create возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCodec) Create(path string, props port.VideoProps) (port.VideoWriter, error) {
	_ = path
	_ = props
	return nil, errGoCVDisabled
}
