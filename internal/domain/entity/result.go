package entity

// ResultKind тип результата обработки
type ResultKind string

const (
	ResultImage ResultKind = "image" // обработано изображение
	ResultVideo ResultKind = "video" // обработано видео
)

// ProcessingResult итог одного запуска конвейера.
// Реализуется только *ImageResult и *VideoResult.
type ProcessingResult interface {
	Kind() ResultKind
	// Artifacts перечисляет все файлы, которыми владеет результат.
	Artifacts() []string
	isProcessingResult()
}

// ImageResult результат обработки изображения
type ImageResult struct {
	AnnotatedImagePath string            // размеченное изображение
	Records            []DetectionRecord // таблица детекций
}

// Kind возвращает ResultImage
func (r *ImageResult) Kind() ResultKind { return ResultImage }

// Artifacts возвращает путь к размеченному изображению
func (r *ImageResult) Artifacts() []string {
	return []string{r.AnnotatedImagePath}
}

func (r *ImageResult) isProcessingResult() {}

// VideoResult результат обработки видео
type VideoResult struct {
	AnnotatedVideoPath string   // размеченное видео
	DamageFramePaths   []string // кадры с повреждениями, по возрастанию номера кадра
	FrameCount         int      // сколько кадров обработано
	FPS                float64  // частота кадров исходника
}

// Kind возвращает ResultVideo
func (r *VideoResult) Kind() ResultKind { return ResultVideo }

// Artifacts возвращает видео и все кадры с повреждениями
func (r *VideoResult) Artifacts() []string {
	paths := make([]string, 0, len(r.DamageFramePaths)+1)
	paths = append(paths, r.AnnotatedVideoPath)
	return append(paths, r.DamageFramePaths...)
}

// HasDamageFrames сообщает, найдены ли повреждения хотя бы на одном кадре
func (r *VideoResult) HasDamageFrames() bool {
	return len(r.DamageFramePaths) > 0
}

func (r *VideoResult) isProcessingResult() {}
