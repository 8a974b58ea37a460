package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Gemini     GeminiConfig
	Cloudinary CloudinaryConfig
	Image      ImageConfig
	Replay     ReplayConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// GeminiConfig holds the scoring endpoint settings. The retry policy lives
// here as one canonical set of constants instead of per-call-site values.
type GeminiConfig struct {
	APIKey         string
	Model          string
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	OverallTimeout time.Duration
	MaxPayloadSize int
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// ImageConfig bounds the normalized JPEG sent to the scoring endpoint and
// the thumbnail kept for history.
type ImageConfig struct {
	MaxWidth       uint
	JPEGQuality    int
	ThumbnailWidth uint
}

type ReplayConfig struct {
	Interval time.Duration
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-05-20"),
			MaxAttempts:    getEnvAsInt("GEMINI_MAX_ATTEMPTS", 3),
			BaseDelay:      time.Duration(getEnvAsInt("GEMINI_BASE_DELAY_MS", 1000)) * time.Millisecond,
			AttemptTimeout: time.Duration(getEnvAsInt("GEMINI_ATTEMPT_TIMEOUT_SEC", 30)) * time.Second,
			OverallTimeout: time.Duration(getEnvAsInt("GEMINI_OVERALL_TIMEOUT_SEC", 45)) * time.Second,
			// Documented server-side limit of the scoring endpoint (~2.5MB pre-encoded)
			MaxPayloadSize: getEnvAsInt("GEMINI_MAX_PAYLOAD_BYTES", 2_500_000),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "outfits"),
		},
		Image: ImageConfig{
			MaxWidth:       uint(getEnvAsInt("IMAGE_MAX_WIDTH", 1024)),
			JPEGQuality:    getEnvAsInt("IMAGE_JPEG_QUALITY", 85),
			ThumbnailWidth: uint(getEnvAsInt("IMAGE_THUMBNAIL_WIDTH", 400)),
		},
		Replay: ReplayConfig{
			Interval: time.Duration(getEnvAsInt("REPLAY_INTERVAL_SEC", 300)) * time.Second,
		},
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
