package port

import "image"

// VideoProps параметры видеопотока
type VideoProps struct {
	FPS        float64
	Width      int
	Height     int
	FrameCount int // может быть 0, если контейнер его не сообщает
}

// VideoReader последовательное чтение кадров
type VideoReader interface {
	Props() VideoProps
	// Next возвращает следующий кадр или io.EOF, когда кадры закончились
	Next() (image.Image, error)
	Close() error
}

// VideoWriter запись кадров в выходной файл
type VideoWriter interface {
	Write(frame image.Image) error
	Close() error
}

// VideoCodec открывает исходные и создаёт выходные видеофайлы
type VideoCodec interface {
	Open(path string) (VideoReader, error)
	Create(path string, props VideoProps) (VideoWriter, error)
}
