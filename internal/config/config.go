package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	DocstoreMemory = "memory"
	DocstoreSQLite = "sqlite"
	DocstoreRedis  = "redis"

	BlobLocal = "local"
	BlobS3    = "s3"

	VisionNone   = "none"
	VisionOllama = "ollama"
	VisionClaude = "claude"
)

type Config struct {
	ListenAddr string
	PublicURL  string

	DocstoreBackend string
	DBPath          string
	RedisURL        string
	RedisNamespace  string

	BlobBackend   string
	BlobLocalPath string
	S3Endpoint    string
	S3Bucket      string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string

	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		PublicURL:  strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		DocstoreBackend: getEnv("DOCSTORE_BACKEND", DocstoreSQLite),
		DBPath:          getEnv("DB_PATH", "/data/grocerysync.db"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisNamespace:  getEnv("REDIS_NAMESPACE", "grocerysync"),

		BlobBackend:   getEnv("BLOB_BACKEND", BlobLocal),
		BlobLocalPath: getEnv("BLOB_LOCAL_PATH", "/data/blobs"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:   getEnv("S3_PUBLIC_URL", ""),

		VisionBackend: getEnv("VISION_BACKEND", VisionNone),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Validate checks backend selections and the settings each one needs.
func (c *Config) Validate() error {
	switch c.DocstoreBackend {
	case DocstoreMemory, DocstoreSQLite, DocstoreRedis:
	default:
		return fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.DocstoreBackend)
	}

	switch c.BlobBackend {
	case BlobLocal:
	case BlobS3:
		if c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required when BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	switch c.VisionBackend {
	case VisionNone, VisionOllama:
	case VisionClaude:
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
