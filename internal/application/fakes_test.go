package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"damage-bot/internal/domain/entity"
	"damage-bot/internal/domain/port"
	"damage-bot/internal/infrastructure/storage"
)

var frameFill = color.RGBA{R: 90, G: 90, B: 90, A: 255}

// fakeDetector отвечает по номеру вызова
type fakeDetector struct {
	mu      sync.Mutex
	byFrame map[int][]entity.Detection
	failAt  int
	calls   int
}

func newFakeDetector(byFrame map[int][]entity.Detection) *fakeDetector {
	return &fakeDetector{byFrame: byFrame, failAt: -1}
}

func (d *fakeDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.calls
	d.calls++
	if i == d.failAt {
		return nil, errors.New("model crashed")
	}
	return d.byFrame[i], nil
}

type fakeCodec struct {
	frames  int
	props   port.VideoProps
	openErr error
	reader  *fakeReader
	writer  *fakeWriter
}

func (c *fakeCodec) Open(path string) (port.VideoReader, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.reader = &fakeReader{total: c.frames, props: c.props}
	return c.reader, nil
}

func (c *fakeCodec) Create(path string, props port.VideoProps) (port.VideoWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	c.writer = &fakeWriter{file: f}
	return c.writer, nil
}

type fakeReader struct {
	total  int
	next   int
	props  port.VideoProps
	closed bool
}

func (r *fakeReader) Props() port.VideoProps { return r.props }

func (r *fakeReader) Next() (image.Image, error) {
	if r.next >= r.total {
		return nil, io.EOF
	}
	r.next++
	return solidFrame(r.props.Width, r.props.Height), nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeWriter struct {
	file   *os.File
	frames []image.Image
	closed bool
}

func (w *fakeWriter) Write(frame image.Image) error {
	w.frames = append(w.frames, frame)
	_, err := w.file.Write([]byte{0})
	return err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.file.Close()
}

func solidFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameFill), image.Point{}, draw.Src)
	return img
}

func damage(label string, confidence float64) entity.Detection {
	return entity.Detection{
		Label:      label,
		Confidence: confidence,
		Box:        entity.BBox{XMin: 4, YMin: 4, XMax: 40, YMax: 30},
	}
}

func newTestStore(t *testing.T) *storage.FileArtifactStore {
	t.Helper()
	store, err := storage.NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}
