package storage

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// PackageZip собирает zip-архив (deflate) во временном файле каталога
// артефактов. Файлы кладутся под базовыми именами в корень архива.
// Пустой список даёт корректный пустой архив.
func (s *FileArtifactStore) PackageZip(paths []string) (string, error) {
	f, err := os.CreateTemp(s.root, "damage_frames-*.zip")
	if err != nil {
		return "", errors.Wrap(err, "create archive")
	}
	archivePath := f.Name()

	if err := writeZip(f, paths); err != nil {
		f.Close()
		os.Remove(archivePath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return "", errors.Wrapf(err, "close archive %s", archivePath)
	}

	return archivePath, nil
}

func writeZip(w io.Writer, paths []string) error {
	zw := zip.NewWriter(w)
	for _, path := range paths {
		if err := addZipEntry(zw, path); err != nil {
			zw.Close()
			return err
		}
	}
	return errors.Wrap(zw.Close(), "finish archive")
}

func addZipEntry(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "zip header %s", path)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, "zip entry %s", path)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "zip copy %s", path)
	}
	return nil
}
