package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DetectorHTTP = "http"
	DetectorONNX = "onnx"
)

type Config struct {
	TelegramToken string `mapstructure:"telegram_token"`
	LogMode       string `mapstructure:"log_mode"`
	OutputDir     string `mapstructure:"output_dir"`
	MaxUploadMB   int64  `mapstructure:"max_upload_mb"`

	Detector            string        `mapstructure:"detector"`
	InferenceURL        string        `mapstructure:"inference_url"`
	InferenceTimeout    time.Duration `mapstructure:"inference_timeout"`
	ModelPath           string        `mapstructure:"model_path"`
	Labels              []string      `mapstructure:"labels"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	NMSThreshold        float64       `mapstructure:"nms_threshold"`

	PreviewLimit   int `mapstructure:"preview_limit"`
	PreviewMaxSide int `mapstructure:"preview_max_side"`
	ProgressStep   int `mapstructure:"progress_step"`
}

// Load читает .env, переменные окружения и, если задан CONFIG_FILE, YAML-файл.
// Переменные окружения важнее файла.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	switch c.Detector {
	case DetectorHTTP:
		if c.InferenceURL == "" {
			return fmt.Errorf("INFERENCE_URL is required for the http detector")
		}
	case DetectorONNX:
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required for the onnx detector")
		}
	default:
		return fmt.Errorf("unknown DETECTOR %q", c.Detector)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("NMS_THRESHOLD must be within [0, 1], got %v", c.NMSThreshold)
	}
	if c.PreviewLimit < 0 {
		return fmt.Errorf("PREVIEW_LIMIT must not be negative")
	}
	if c.ProgressStep < 1 || c.ProgressStep > 100 {
		return fmt.Errorf("PROGRESS_STEP must be within [1, 100], got %d", c.ProgressStep)
	}
	return nil
}

// MaxUploadBytes предел размера загружаемого файла
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("log_mode", "debug")
	v.SetDefault("output_dir", "./artifacts")
	v.SetDefault("max_upload_mb", 20)

	v.SetDefault("detector", DetectorHTTP)
	v.SetDefault("inference_url", "http://localhost:8000/predict")
	v.SetDefault("inference_timeout", 30*time.Second)
	v.SetDefault("model_path", "")
	v.SetDefault("labels", []string{})
	v.SetDefault("confidence_threshold", 0.25)
	v.SetDefault("nms_threshold", 0.45)

	v.SetDefault("preview_limit", 5)
	v.SetDefault("preview_max_side", 640)
	v.SetDefault("progress_step", 10)
}
