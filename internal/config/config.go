package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Batch     BatchConfig
	Interview InterviewConfig
	Auth      AuthConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	URL        string
	SessionTTL time.Duration
}

// QdrantConfig drives duplicate-resume detection. Detection is skipped
// entirely unless DuplicateCheck is on.
type QdrantConfig struct {
	URL                string
	APIKey             string
	Collection         string
	DuplicateCheck     bool
	DuplicateThreshold float64
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency      int
	PollInterval     time.Duration
	JanitorInterval  time.Duration
	RetryMaxAttempts int
}

type BatchConfig struct {
	Size              int
	OracleConcurrency int64
}

type InterviewConfig struct {
	MaxQuestions   int
	ViolationLimit int
	IdleTimeout    time.Duration
	CookieSecret   string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "candidate_screener"),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			SessionTTL: getEnvAsDuration("SESSION_CACHE_TTL", "1h"),
		},
		Qdrant: QdrantConfig{
			URL:                getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:             getEnv("QDRANT_API_KEY", ""),
			Collection:         getEnv("QDRANT_COLLECTION", "candidate_resumes"),
			DuplicateCheck:     getEnvAsBool("DUPLICATE_CHECK_ENABLED", false),
			DuplicateThreshold: getEnvAsFloat("DUPLICATE_THRESHOLD", 0.9),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvAsInt("WORKER_CONCURRENCY", 2),
			PollInterval:     getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
			JanitorInterval:  getEnvAsDuration("SESSION_JANITOR_INTERVAL", "15m"),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 2),
		},
		Batch: BatchConfig{
			Size:              getEnvAsInt("BATCH_SIZE", 10),
			OracleConcurrency: getEnvAsInt64("ORACLE_CONCURRENCY", 5),
		},
		Interview: InterviewConfig{
			MaxQuestions:   getEnvAsInt("INTERVIEW_MAX_QUESTIONS", 5),
			ViolationLimit: getEnvAsInt("INTERVIEW_VIOLATION_LIMIT", 3),
			IdleTimeout:    getEnvAsDuration("INTERVIEW_IDLE_TIMEOUT", "24h"),
			CookieSecret:   getEnv("INTERVIEW_COOKIE_SECRET", "change-me-interview-secret"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "change-me-jwt-secret"),
			TokenTTL:   getEnvAsDuration("JWT_TTL", "24h"),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
