package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and handed to the collaborators that
// need it. Business logic never reads the environment directly.
type Config struct {
	Port           string
	AllowedOrigins []string

	MongoURI     string
	DatabaseName string

	Auth    AuthConfig
	Storage StorageConfig
	Upload  UploadConfig
}

type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// StorageConfig selects and configures the media storage backend.
// Driver is either "r2" or "gcs".
type StorageConfig struct {
	Driver string

	Bucket       string
	PublicDomain string

	// r2
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string

	// gcs
	CredentialsFile string
}

type UploadConfig struct {
	MaxSizeMB         int
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:           getEnvDefault("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		MongoURI:       os.Getenv("MONGODB_URI"),
		DatabaseName:   getEnvDefault("DATABASE_NAME", "vidtube"),
		Auth: AuthConfig{
			AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTokenTTL:     minutesDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTL:    daysDefault("REFRESH_TOKEN_TTL_DAYS", 10),
		},
		Storage: StorageConfig{
			Driver:          getEnvDefault("MEDIA_STORAGE_DRIVER", "r2"),
			Bucket:          os.Getenv("MEDIA_BUCKET"),
			PublicDomain:    strings.TrimRight(os.Getenv("MEDIA_PUBLIC_DOMAIN"), "/"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("R2_ENDPOINT"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},
		Upload: UploadConfig{
			MaxSizeMB:         intDefault("MAX_UPLOAD_SIZE_MB", 5),
			AllowedExtensions: splitList(getEnvDefault("ALLOWED_FILE_EXTENSIONS", ".jpg,.jpeg,.png,.webp")),
			AllowedMimeTypes:  splitList(getEnvDefault("ALLOWED_FILE_MIME_TYPES", "image/jpeg,image/png,image/webp")),
		},
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}
	if cfg.Auth.AccessTokenSecret == "" || cfg.Auth.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func minutesDefault(key string, def int) time.Duration {
	return time.Duration(intDefault(key, def)) * time.Minute
}

func daysDefault(key string, def int) time.Duration {
	return time.Duration(intDefault(key, def)) * 24 * time.Hour
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
