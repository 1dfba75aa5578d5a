package vision

// OutputFourCC кодек размеченного видео
const OutputFourCC = "mp4v"

// ONNXConfig настройки локальной ONNX-модели
type ONNXConfig struct {
	ModelPath           string
	Labels              []string // имена классов в порядке обучения
	InputSize           int      // сторона квадратного входа сети
	ConfidenceThreshold float32
	NMSThreshold        float32
}

// DefaultONNXConfig возвращает настройки для YOLOv8 с входом 640x640
func DefaultONNXConfig(modelPath string) ONNXConfig {
	return ONNXConfig{
		ModelPath:           modelPath,
		Labels:              []string{"dent", "scratch", "crack", "glass_shatter", "lamp_broken", "tire_flat"},
		InputSize:           640,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.45,
	}
}
