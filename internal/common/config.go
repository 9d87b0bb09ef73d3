package common

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Vision   VisionConfig
	AuditLog AuditLogConfig
	Gate     GateConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr          string
	MaxUploadSize int64
}

// MongoConfig holds the primary sink (document store) configuration.
type MongoConfig struct {
	URI         string
	Database    string
	Collection  string
	DialTimeout time.Duration
}

// VisionConfig holds the remote classifier configuration.
type VisionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// AuditLogConfig holds the secondary sink (rotated JSON-line log) configuration.
type AuditLogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// GateConfig holds the shape gate policy constants. These are empirical
// thresholds for "digit-like" contours, not magic numbers in the gate code.
type GateConfig struct {
	MinAspectRatio float64 // bounding-box width/height lower bound
	MaxAspectRatio float64
	MinAreaRatio   float64 // bounding-box area / image area lower bound
	MaxAreaRatio   float64
	BlockSize      int // adaptive threshold neighbourhood (odd)
	MinContours    int // candidates required for a plausible verdict
	MaxSide        int // images are downscaled to this before analysis
}

// LoadConfig reads configuration from the environment, with a best-effort
// .env load first so local runs match the deployed container.
func LoadConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("MAX_UPLOAD_SIZE", 10*1024*1024)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB_NAME", "mouldlens_db")
	v.SetDefault("MONGODB_COLLECTION", "mould_readings")
	v.SetDefault("MONGODB_DIAL_TIMEOUT", "3s")
	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct")
	v.SetDefault("GROQ_TEMPERATURE", 0.0)
	v.SetDefault("GROQ_TIMEOUT", "15s")
	v.SetDefault("AUDIT_LOG_PATH", "logs/mouldlens.log")
	v.SetDefault("AUDIT_LOG_MAX_SIZE_MB", 5)
	v.SetDefault("AUDIT_LOG_MAX_BACKUPS", 3)
	v.SetDefault("GATE_MIN_ASPECT_RATIO", 0.15)
	v.SetDefault("GATE_MAX_ASPECT_RATIO", 1.2)
	v.SetDefault("GATE_MIN_AREA_RATIO", 0.0005)
	v.SetDefault("GATE_MAX_AREA_RATIO", 0.05)
	v.SetDefault("GATE_BLOCK_SIZE", 31)
	v.SetDefault("GATE_MIN_CONTOURS", 1)
	v.SetDefault("GATE_MAX_SIDE", 1024)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Addr:          v.GetString("HTTP_ADDR"),
			MaxUploadSize: v.GetInt64("MAX_UPLOAD_SIZE"),
		},
		Mongo: MongoConfig{
			URI:         v.GetString("MONGODB_URI"),
			Database:    v.GetString("MONGODB_DB_NAME"),
			Collection:  v.GetString("MONGODB_COLLECTION"),
			DialTimeout: v.GetDuration("MONGODB_DIAL_TIMEOUT"),
		},
		Vision: VisionConfig{
			APIKey:      v.GetString("GROQ_API_KEY"),
			BaseURL:     v.GetString("GROQ_BASE_URL"),
			Model:       v.GetString("GROQ_MODEL"),
			Temperature: float32(v.GetFloat64("GROQ_TEMPERATURE")),
			Timeout:     v.GetDuration("GROQ_TIMEOUT"),
		},
		AuditLog: AuditLogConfig{
			Path:       v.GetString("AUDIT_LOG_PATH"),
			MaxSizeMB:  v.GetInt("AUDIT_LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("AUDIT_LOG_MAX_BACKUPS"),
		},
		Gate: GateConfig{
			MinAspectRatio: v.GetFloat64("GATE_MIN_ASPECT_RATIO"),
			MaxAspectRatio: v.GetFloat64("GATE_MAX_ASPECT_RATIO"),
			MinAreaRatio:   v.GetFloat64("GATE_MIN_AREA_RATIO"),
			MaxAreaRatio:   v.GetFloat64("GATE_MAX_AREA_RATIO"),
			BlockSize:      v.GetInt("GATE_BLOCK_SIZE"),
			MinContours:    v.GetInt("GATE_MIN_CONTOURS"),
			MaxSide:        v.GetInt("GATE_MAX_SIDE"),
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Vision.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GROQ_API_KEY is required", ErrInvalidInput)
	}
	if c.Mongo.URI == "" {
		return NewAppError("CONFIG_ERROR", "MONGODB_URI is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Gate.BlockSize%2 == 0 {
		return NewAppError("CONFIG_ERROR", "GATE_BLOCK_SIZE must be odd", ErrInvalidInput)
	}
	return nil
}
