package port

import "image"

// ArtifactStore файловое хранилище артефактов обработки
type ArtifactStore interface {
	// NewRunDir создаёт уникальный каталог для одного запуска конвейера
	NewRunDir() (string, error)
	// SaveJPEG сохраняет кадр в формате JPEG
	SaveJPEG(path string, img image.Image) error
	// Remove удаляет файл; отсутствие файла ошибкой не считается
	Remove(path string) error
	// RemoveRunDir удаляет каталог запуска вместе с содержимым
	RemoveRunDir(dir string) error
	// PackageZip собирает zip-архив из файлов и возвращает путь к нему
	PackageZip(paths []string) (string, error)
}
