package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	LogMode string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTKey        string
	JWTIssuer     string
	ElevatedRoles []string

	UploadBasePath string
	BlobBackend    string // local, s3
	S3Bucket       string
	S3Region       string
	MaxUploadMB    int

	RedisURL                 string
	StructureCacheTTLSeconds int

	OrphanScanCron string

	SendgridAPIKey string
	EmailSender    string

	ModerationWebhookURL string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.BlobBackend == "s3" && AppConfig.S3Bucket == "" {
		log.Println("Warning: BLOB_BACKEND=s3 without S3_BUCKET, falling back to local storage.")
		AppConfig.BlobBackend = "local"
	}
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:    getEnv("PORT", "3000"),
		LogMode: getEnv("LOG_MODE", "dev"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "coursehub"),

		JWTKey:        getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTIssuer:     getEnv("JWT_ISSUER", "auth-server"),
		ElevatedRoles: getEnvList("ELEVATED_ROLES", []string{"founder", "admin"}),

		UploadBasePath: getEnv("UPLOAD_BASE_PATH", "uploads"),
		BlobBackend:    strings.ToLower(getEnv("BLOB_BACKEND", "local")),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 2048),

		RedisURL:                 getEnv("REDIS_URL", ""),
		StructureCacheTTLSeconds: getEnvInt("STRUCTURE_CACHE_TTL_SECONDS", 300),

		OrphanScanCron: getEnv("ORPHAN_SCAN_CRON", "@every 6h"),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@coursehub.local"),

		ModerationWebhookURL: getEnv("MODERATION_WEBHOOK_URL", ""),
	}
}

// IsElevated reports whether role is one of the configured elevated roles.
func (c *Config) IsElevated(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range c.ElevatedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvList splits a comma separated variable into lower-cased, trimmed entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
