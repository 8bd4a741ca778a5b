// Package config provides configuration management for the mealvault
// application. All values come from environment variables, with support for
// required variables, defaults, and collective error reporting: rather than
// failing on the first bad variable, LoadConfig gathers every problem and
// reports them at once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Media backends selectable via MEDIA_BACKEND.
const (
	MediaBackendFile = "file"
	MediaBackendS3   = "s3"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// BcryptCost is the work factor passed to bcrypt when hashing passwords.
	BcryptCost int
	// TokenBytes is the number of random bytes behind each auth token.
	// Tokens render as hex, so the issued key is twice this many characters.
	TokenBytes int
}

// S3Config holds the settings for the S3 media backend. Endpoint is optional
// and exists for S3-compatible stores such as MinIO.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// MediaConfig controls where uploaded recipe images go.
type MediaConfig struct {
	Backend        string // "file" or "s3"
	Dir            string // root directory for the file backend
	MaxUploadBytes int64
	S3             *S3Config // nil unless Backend is "s3"
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB     *PoolConfig
	Auth   *AuthConfig
	Media  *MediaConfig
	Server *ServerConfig
}

// getRequiredEnv fetches a required variable, collecting an error when it is
// missing.
func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv fetches a variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt fetches a variable parsed as an int, collecting an error
// and keeping the default when parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got %q: %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvInt64 is getOptionalEnvInt for 64-bit values (byte sizes).
func getOptionalEnvInt64(key string, defaultValue int64, errs *[]string) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got %q: %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// clampPoolSize keeps the pool size inside sane bounds, collecting an error
// when the configured value had to be adjusted.
func clampPoolSize(size int, varName string, errs *[]string) int {
	if size < 5 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is less than minimum 5, clamping to 5", varName, size))
		return 5
	}
	if size > 100 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100, clamping to 100", varName, size))
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	// Database configuration.
	dbUser := getRequiredEnv("DB_USER", &errs)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errs)
	dbName := getRequiredEnv("DB_NAME", &errs)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errs)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errs), "DB_POOL_SIZE", &errs)

	dbConfig := &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	// Auth configuration. The bcrypt default cost (10) balances login
	// latency against brute-force resistance; tests may lower it.
	authConfig := &AuthConfig{
		BcryptCost: getOptionalEnvInt("BCRYPT_COST", 10, &errs),
		TokenBytes: getOptionalEnvInt("AUTH_TOKEN_BYTES", 20, &errs),
	}

	// Media configuration.
	mediaBackend := getOptionalEnv("MEDIA_BACKEND", MediaBackendFile)
	mediaConfig := &MediaConfig{
		Backend:        mediaBackend,
		Dir:            getOptionalEnv("MEDIA_DIR", "./media"),
		MaxUploadBytes: getOptionalEnvInt64("MEDIA_MAX_UPLOAD_BYTES", 8<<20, &errs),
	}
	switch mediaBackend {
	case MediaBackendFile:
		// Nothing further to read.
	case MediaBackendS3:
		mediaConfig.S3 = &S3Config{
			Region:    getOptionalEnv("S3_REGION", "us-east-1"),
			Bucket:    getRequiredEnv("S3_BUCKET", &errs),
			AccessKey: getRequiredEnv("S3_ACCESS_KEY", &errs),
			SecretKey: getRequiredEnv("S3_SECRET_KEY", &errs),
			Endpoint:  getOptionalEnv("S3_ENDPOINT", ""),
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid MEDIA_BACKEND %q: expected %q or %q", mediaBackend, MediaBackendFile, MediaBackendS3))
	}

	// Server configuration.
	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Media:  mediaConfig,
		Server: serverConfig,
	}, nil
}
