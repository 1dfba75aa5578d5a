package entity

import "errors"

// Виды ошибок конвейера. Проверяются через errors.Is.
var (
	ErrUploadDecode = errors.New("upload decode failed")
	ErrVideoOpen    = errors.New("video open failed")
	ErrInference    = errors.New("inference failed")
	ErrArtifactIO   = errors.New("artifact io failed")
	ErrCancelled    = errors.New("processing cancelled")
	ErrNoResult     = errors.New("no result")
	ErrSessionBusy  = errors.New("session is busy")
)
