package storage

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"damage-bot/internal/domain/port"
)

// JPEGQuality качество сохраняемых кадров
const JPEGQuality = 90

// FileArtifactStore хранит артефакты в общем каталоге процесса.
// Каждый запуск пишет в собственный подкаталог, поэтому имена файлов
// разных сессий не пересекаются.
type FileArtifactStore struct {
	root string
}

// NewFileArtifactStore создаёт каталог артефактов, если его ещё нет
func NewFileArtifactStore(root string) (*FileArtifactStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve artifact dir %s", root)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrapf(err, "create artifact dir %s", abs)
	}
	return &FileArtifactStore{root: abs}, nil
}

// Root возвращает абсолютный путь к каталогу артефактов
func (s *FileArtifactStore) Root() string {
	return s.root
}

// NewRunDir создаёт уникальный каталог запуска
func (s *FileArtifactStore) NewRunDir() (string, error) {
	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create run dir %s", dir)
	}
	return dir, nil
}

// SaveJPEG кодирует кадр в JPEG. Недописанный файл удаляется.
func (s *FileArtifactStore) SaveJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "encode %s", path)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}

// Remove удаляет файл; отсутствие файла ошибкой не считается
func (s *FileArtifactStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", path)
	}
	return nil
}

// RemoveRunDir удаляет каталог запуска. Каталоги вне корня не трогаются.
func (s *FileArtifactStore) RemoveRunDir(dir string) error {
	if dir == "" {
		return nil
	}
	if !s.contains(dir) {
		return errors.Errorf("run dir %s is outside of %s", dir, s.root)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "remove run dir %s", dir)
	}
	return nil
}

func (s *FileArtifactStore) contains(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

// Проверка реализации интерфейса
var _ port.ArtifactStore = (*FileArtifactStore)(nil)
