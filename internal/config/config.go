package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongodb"

	MediaStorageLocal  = "local"
	MediaStorageRemote = "remote"

	PromotionPolicyKeep     = "keep"
	PromotionPolicyRollback = "rollback"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// MinIOConfig holds object storage settings for MinIO.
// PublicURL, when set, replaces the endpoint as the base of issued object URLs.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// MediaConfig selects and configures the durable media store.
type MediaConfig struct {
	Storage      string
	Root         string
	Dir          string
	URLPrefix    string
	RemoteFolder string
}

// UploadConfig describes how the HTTP boundary receives image files.
type UploadConfig struct {
	TempDir      string
	MaxBytes     int64
	AllowedTypes []string
}

// ModerationConfig lists terms added to the built-in text denylist.
type ModerationConfig struct {
	ExtraTerms []string
}

// ScannerConfig holds the visual content classification service settings.
type ScannerConfig struct {
	Endpoint        string
	APIUser         string
	APISecret       string
	Models          string
	Timeout         time.Duration
	BreakerCooldown time.Duration
}

// AuthConfig holds bearer token verification settings. An empty Secret disables auth.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// KafkaConfig holds lifecycle event publishing settings. No brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string
	Port            string
	LogLevel        string
	StoreDriver     string
	PromotionPolicy string
	Database        DatabaseConfig
	Mongo           MongoConfig
	MinIO           MinIOConfig
	Media           MediaConfig
	Upload          UploadConfig
	Moderation      ModerationConfig
	Scanner         ScannerConfig
	Auth            AuthConfig
	Kafka           KafkaConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:         getEnv("APP_HOST", "localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StoreDriver:     getEnv("STORE_DRIVER", StoreDriverPostgres),
		PromotionPolicy: getEnv("PROMOTION_FAILURE_POLICY", PromotionPolicyKeep),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "catalog"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		Media: MediaConfig{
			Storage:      getEnv("MEDIA_STORAGE", MediaStorageLocal),
			Root:         getEnv("MEDIA_ROOT", "."),
			Dir:          getEnv("MEDIA_DIR", "uploads/ProductImages"),
			URLPrefix:    getEnv("MEDIA_URL_PREFIX", "/ProductImages"),
			RemoteFolder: getEnv("MEDIA_REMOTE_FOLDER", "products"),
		},
		Upload: UploadConfig{
			TempDir:      getEnv("UPLOAD_TEMP_DIR", "uploads/temp"),
			MaxBytes:     int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
			AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
		Moderation: ModerationConfig{
			ExtraTerms: getEnvList("MODERATION_TERMS"),
		},
		Scanner: ScannerConfig{
			Endpoint:        getEnv("SCANNER_ENDPOINT", "https://api.sightengine.com/1.0/check.json"),
			APIUser:         getEnv("SCANNER_API_USER", ""),
			APISecret:       getEnv("SCANNER_API_SECRET", ""),
			Models:          getEnv("SCANNER_MODELS", "nudity-2.1,wad,offensive,gore,violence"),
			Timeout:         time.Duration(getEnvInt("SCANNER_TIMEOUT_SEC", 15)) * time.Second,
			BreakerCooldown: time.Duration(getEnvInt("SCANNER_BREAKER_COOLDOWN_SEC", 30)) * time.Second,
		},
		Auth: AuthConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", ""),
			Audience: getEnv("JWT_AUDIENCE", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "product-events"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
