package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// BackendOpenCV runs the model through the OpenCV DNN module.
	BackendOpenCV = "opencv"
	// BackendONNXRuntime runs the model through the ONNX Runtime shared library.
	BackendONNXRuntime = "onnxruntime"
)

type Config struct {
	Port               int
	ModelPath          string
	NamesPath          string // optional sidecar with the class-name table
	Backend            string
	OnnxRuntimeLibrary string
	ConfThreshold      float32
	IouThreshold       float32
	MaxDetections      int
	MaxUploadBytes     int64
	MaxPixels          int64 // decoded width*height cap; 0 disables it
	SessionTTL         time.Duration
	RateLimitPerMinute int
	HistoryDB          string // empty disables the run journal
	LogDirectory       string
	LogsAllowRemote    bool // serve /logs to non-loopback clients
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnvAsInt("PORT", 8080),
		ModelPath:          getEnv("MODEL_PATH", filepath.Join("models", "best.onnx")),
		NamesPath:          getEnv("MODEL_NAMES", ""),
		Backend:            getEnv("DETECTOR_BACKEND", BackendOpenCV),
		OnnxRuntimeLibrary: getEnv("ONNXRUNTIME_LIB", ""),
		ConfThreshold:      getEnvAsFloat32("CONF_THRESHOLD", 0.25), // ultralytics predict default
		IouThreshold:       getEnvAsFloat32("IOU_THRESHOLD", 0.7),
		MaxDetections:      getEnvAsInt("MAX_DETECTIONS", 300),
		MaxUploadBytes:     getEnvAsInt64("MAX_UPLOAD_MB", 20) << 20,
		MaxPixels:          getEnvAsInt64("MAX_PIXELS", 50_000_000),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		HistoryDB:          getEnv("HISTORY_DB", ""),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogsAllowRemote:    getEnvAsBool("LOGS_ALLOW_REMOTE", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
