package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Storage   StorageConfig   `json:"storage"`
	GCS       GCSConfig       `json:"gcs"`
	S3        S3Config        `json:"s3"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	Cache     CacheConfig     `json:"cache"`
	Engine    EngineConfig    `json:"engine"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Port        string   `json:"port"`
	Environment string   `json:"environment"`
	BaseURL     string   `json:"base_url"`
	CORSOrigins []string `json:"cors_origins"`
}

type DatabaseConfig struct {
	Type       string `json:"type"` // "memory", "postgres", "mysql" or "sqlite"
	Host       string `json:"host"`
	Port       string `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	DBName     string `json:"db_name"`
	SQLitePath string `json:"sqlite_path"`
}

type StorageConfig struct {
	Type      string `json:"type"`       // "local", "gcs" or "s3"
	LocalPath string `json:"local_path"` // Path for local storage (e.g., "./storage")
	LocalURL  string `json:"local_url"`  // Base URL for local storage (e.g., "http://localhost:8080/files")
	SecretKey string `json:"secret_key"` // Secret key for signing local URLs
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name"`
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

type GotenbergConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
}

type CacheConfig struct {
	Type     string        `json:"type"` // "memory", "valkey" or "none"
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Password string        `json:"password"`
	TTL      time.Duration `json:"ttl"`
}

// SubmissionMode selects whether validation failures block submission.
type SubmissionMode string

const (
	SubmissionStrict  SubmissionMode = "strict"
	SubmissionLenient SubmissionMode = "lenient"
)

type EngineConfig struct {
	SubmissionMode     SubmissionMode `json:"submission_mode"`
	MaxSectionDepth    int            `json:"max_section_depth"`
	DefaultPageSize    string         `json:"default_page_size"`
	DefaultOrientation string         `json:"default_orientation"`
	MarkdownTextareas  bool           `json:"markdown_textareas"`
	LoadSystemCatalog  bool           `json:"load_system_catalog"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "text"
}

func (d *DatabaseConfig) DSN() string {
	switch d.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	case "sqlite":
		return d.SQLitePath
	}
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.User, d.Password, d.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

// findProjectRoot finds the project root by looking for go.mod file
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadDotEnv loads the first .env file found. It reports whether one was
// found; a missing file is not an error.
func loadDotEnv() bool {
	envPaths := []string{}
	if projectRoot := findProjectRoot(); projectRoot != "" {
		envPaths = append(envPaths, filepath.Join(projectRoot, ".env"))
	}
	envPaths = append(envPaths, "../../.env", ".env")

	for _, envPath := range envPaths {
		if err := godotenv.Load(envPath); err == nil {
			return true
		}
	}
	return false
}

func Load() (*Config, error) {
	if !loadDotEnv() {
		fmt.Printf("Failed to load .env file from any location, using system environment variables\n")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	gotenbergTimeout, err := getDuration("GOTENBERG_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	maxDepth, err := getInt("ENGINE_MAX_SECTION_DEPTH", 16)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			BaseURL:     getEnv("BASE_URL", ""),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Type:       strings.ToLower(getEnv("DB_TYPE", "memory")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "df_forms"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "./df_forms.db"),
		},
		Storage: StorageConfig{
			Type:      strings.ToLower(getEnv("STORAGE_TYPE", "local")),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./storage"),
			LocalURL:  getEnv("STORAGE_LOCAL_URL", "http://localhost:8080/files"),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: gotenbergTimeout,
		},
		Cache: CacheConfig{
			Type:     strings.ToLower(getEnv("CACHE_TYPE", "memory")),
			Host:     getEnv("VALKEY_HOST", "localhost"),
			Port:     getEnv("VALKEY_PORT", "6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TTL:      cacheTTL,
		},
		Engine: EngineConfig{
			SubmissionMode:     SubmissionMode(strings.ToLower(getEnv("ENGINE_SUBMISSION_MODE", string(SubmissionStrict)))),
			MaxSectionDepth:    maxDepth,
			DefaultPageSize:    getEnv("ENGINE_DEFAULT_PAGE_SIZE", "Letter"),
			DefaultOrientation: strings.ToLower(getEnv("ENGINE_DEFAULT_ORIENTATION", "portrait")),
			MarkdownTextareas:  getEnv("ENGINE_MARKDOWN_TEXTAREAS", "false") == "true",
			LoadSystemCatalog:  getEnv("ENGINE_LOAD_SYSTEM_CATALOG", "true") == "true",
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	switch c.Engine.SubmissionMode {
	case SubmissionStrict, SubmissionLenient:
	default:
		return fmt.Errorf("invalid ENGINE_SUBMISSION_MODE %q: must be strict or lenient", c.Engine.SubmissionMode)
	}
	if c.Engine.MaxSectionDepth <= 0 {
		return fmt.Errorf("invalid ENGINE_MAX_SECTION_DEPTH %d: must be positive", c.Engine.MaxSectionDepth)
	}
	switch c.Database.Type {
	case "memory", "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("invalid DB_TYPE %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "local", "gcs", "s3":
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q", c.Storage.Type)
	}
	switch c.Cache.Type {
	case "memory", "valkey", "none":
	default:
		return fmt.Errorf("invalid CACHE_TYPE %q", c.Cache.Type)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
