package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Realtime    RealtimeConfig
	Uploads     UploadConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type RealtimeConfig struct {
	TypingTTL      time.Duration
	SweepInterval  time.Duration
	SendBuffer     int
	EventTimeout   time.Duration
	ChatRateLimit  int
	ChatRateWindow time.Duration
}

type UploadConfig struct {
	MaxFiles      int
	MaxFileSize   int64
	Expiry        time.Duration
	DefaultFolder string
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", 8080),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour),
			Issuer: getEnv("JWT_ISSUER", "zenlist"),
		},
		Realtime: RealtimeConfig{
			TypingTTL:      getEnvAsDuration("TYPING_TTL", 3*time.Second),
			SweepInterval:  getEnvAsDuration("TYPING_SWEEP_INTERVAL", 1500*time.Millisecond),
			SendBuffer:     getEnvAsInt("WS_SEND_BUFFER", 256),
			EventTimeout:   getEnvAsDuration("WS_EVENT_TIMEOUT", 10*time.Second),
			ChatRateLimit:  getEnvAsInt("CHAT_RATE_LIMIT", 20),
			ChatRateWindow: getEnvAsDuration("CHAT_RATE_WINDOW", 10*time.Second),
		},
		Uploads: UploadConfig{
			MaxFiles:      getEnvAsInt("UPLOAD_MAX_FILES", 5),
			MaxFileSize:   getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024),
			Expiry:        getEnvAsDuration("UPLOAD_URL_EXPIRY", 60*time.Second),
			DefaultFolder: getEnv("UPLOAD_DEFAULT_FOLDER", "chat"),
			Endpoint:      getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			Region:        getEnv("AWS_S3_REGION", ""),
			Bucket:        getEnv("AWS_S3_BUCKET", ""),
			AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UseSSL:        getEnvAsBool("S3_USE_SSL", true),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UploadsEnabled можно ли выдавать pre-signed загрузки
func (c *Config) UploadsEnabled() bool {
	u := c.Uploads
	return u.Bucket != "" && u.AccessKey != "" && u.SecretKey != ""
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.Realtime.TypingTTL <= 0 || c.Realtime.SweepInterval <= 0 {
		return fmt.Errorf("typing TTL and sweep interval must be positive")
	}
	if c.Uploads.MaxFiles <= 0 || c.Uploads.MaxFileSize <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
