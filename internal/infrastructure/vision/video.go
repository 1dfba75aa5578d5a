//go:build gocv
// +build gocv

package vision

import (
	"image"
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"damage-bot/internal/domain/port"
)

// GoCVCodec читает и пишет видео через OpenCV
type GoCVCodec struct {
	FourCC     string  // кодек выходного файла
	DefaultFPS float64 // если контейнер не сообщил fps
}

// NewGoCVCodec создаёт кодек с выходом mp4v
func NewGoCVCodec() *GoCVCodec {
	return &GoCVCodec{FourCC: OutputFourCC, DefaultFPS: 25}
}

// Open открывает видеофайл и читает его параметры
func (c *GoCVCodec) Open(path string) (port.VideoReader, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("cannot open %s", path)
	}

	props := port.VideoProps{
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if props.Width <= 0 || props.Height <= 0 {
		capture.Close()
		return nil, errors.Errorf("no video stream in %s", path)
	}
	if props.FrameCount < 0 {
		props.FrameCount = 0
	}
	if props.FPS <= 0 {
		props.FPS = c.DefaultFPS
	}

	return &gocvReader{capture: capture, frame: gocv.NewMat(), props: props}, nil
}

// Create открывает выходной файл с теми же fps и разрешением
func (c *GoCVCodec) Create(path string, props port.VideoProps) (port.VideoWriter, error) {
	fps := props.FPS
	if fps <= 0 {
		fps = c.DefaultFPS
	}

	writer, err := gocv.VideoWriterFile(path, c.FourCC, fps, props.Width, props.Height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, errors.Errorf("cannot create %s with codec %s", path, c.FourCC)
	}
	return &gocvWriter{writer: writer}, nil
}

type gocvReader struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	props   port.VideoProps
}

func (r *gocvReader) Props() port.VideoProps {
	return r.props
}

func (r *gocvReader) Next() (image.Image, error) {
	if ok := r.capture.Read(&r.frame); !ok || r.frame.Empty() {
		return nil, io.EOF
	}
	img, err := r.frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	return img, nil
}

func (r *gocvReader) Close() error {
	r.frame.Close()
	return r.capture.Close()
}

type gocvWriter struct {
	writer *gocv.VideoWriter
}

func (w *gocvWriter) Write(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return errors.Wrap(err, "convert frame")
	}
	defer mat.Close()

	return errors.Wrap(w.writer.Write(mat), "write frame")
}

func (w *gocvWriter) Close() error {
	return w.writer.Close()
}

// Проверка реализации интерфейса
var _ port.VideoCodec = (*GoCVCodec)(nil)
