package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type uploadKind int

const (
	uploadNone uploadKind = iota
	uploadImage
	uploadVideo
)

// upload файл из сообщения, который можно обработать
type upload struct {
	kind   uploadKind
	fileID string
	name   string
	size   int64
}

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true, ".m4v": true}
)

// classifyMessage определяет, что прислал пользователь
func classifyMessage(msg *tgbotapi.Message) upload {
	switch {
	case len(msg.Photo) > 0:
		// Берём фото с максимальным разрешением
		photo := msg.Photo[len(msg.Photo)-1]
		return upload{
			kind:   uploadImage,
			fileID: photo.FileID,
			name:   fmt.Sprintf("photo_%d.jpg", msg.MessageID),
			size:   int64(photo.FileSize),
		}

	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%d.mp4", msg.MessageID)
		}
		return upload{kind: uploadVideo, fileID: msg.Video.FileID, name: name, size: int64(msg.Video.FileSize)}

	case msg.Document != nil:
		doc := msg.Document
		kind := documentKind(doc.MimeType, doc.FileName)
		if kind == uploadNone {
			return upload{}
		}
		name := doc.FileName
		if name == "" {
			name = fmt.Sprintf("document_%d", msg.MessageID)
		}
		return upload{kind: kind, fileID: doc.FileID, name: name, size: int64(doc.FileSize)}
	}

	return upload{}
}

func documentKind(mimeType, name string) uploadKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return uploadImage
	case strings.HasPrefix(mimeType, "video/"):
		return uploadVideo
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExts[ext]:
		return uploadImage
	case videoExts[ext]:
		return uploadVideo
	}
	return uploadNone
}

// openFile открывает поток файла из Telegram не больше limit байт
func (b *Bot) openFile(ctx context.Context, up upload) (io.ReadCloser, error) {
	if b.opts.MaxUploadBytes > 0 && up.size > b.opts.MaxUploadBytes {
		return nil, errUploadTooLarge
	}

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: up.fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	return &limitedBody{body: resp.Body, limit: b.opts.MaxUploadBytes}, nil
}

// downloadToTemp сохраняет видео во временный файл
func (b *Bot) downloadToTemp(ctx context.Context, up upload) (string, error) {
	body, err := b.openFile(ctx, up)
	if err != nil {
		return "", err
	}
	defer body.Close()

	f, err := os.CreateTemp("", "upload-*"+filepath.Ext(up.name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// limitedBody обрывает чтение с errUploadTooLarge, когда прочитано больше limit байт.
// limit <= 0 снимает ограничение.
type limitedBody struct {
	body  io.ReadCloser
	limit int64
	read  int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	n, err := l.body.Read(p)
	l.read += int64(n)
	if l.limit > 0 && l.read > l.limit {
		return n, errUploadTooLarge
	}
	return n, err
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}
