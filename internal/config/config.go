// Package config loads pagesmithd settings from flags, .env and the
// environment.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel  = "gemini-2.5-flash"
	DefaultRefine = 2
	DefaultWidth  = 1280
	DefaultHeight = 800
)

type Config struct {
	Port    string
	Env     string
	DataDir string

	// Provider settings; an empty APIKey disables the AI path.
	APIKey string
	Model  string
	Refine int

	// Capture defaults, overridable per request.
	Width      int
	Height     int
	Wait       string
	NavTimeout time.Duration
	FullPage   bool

	PGDSN    string
	Artifact ArtifactConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	dataDir := flag.String("data", "data", "root directory for run output")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:       *port,
		Env:        env,
		DataDir:    firstNonEmpty(strings.TrimSpace(os.Getenv("PAGESMITH_DATA_DIR")), *dataDir),
		APIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:      firstNonEmpty(strings.TrimSpace(os.Getenv("PAGESMITH_MODEL")), DefaultModel),
		Refine:     envInt("PAGESMITH_REFINE", DefaultRefine),
		Width:      envInt("PAGESMITH_WIDTH", DefaultWidth),
		Height:     envInt("PAGESMITH_HEIGHT", DefaultHeight),
		Wait:       firstNonEmpty(strings.TrimSpace(os.Getenv("PAGESMITH_WAIT")), "load"),
		NavTimeout: time.Duration(envInt("PAGESMITH_NAV_TIMEOUT_MS", 30000)) * time.Millisecond,
		FullPage:   envBool("PAGESMITH_FULL_PAGE", true),
		PGDSN:      strings.TrimSpace(os.Getenv("RUN_STORE_PG_DSN")),
		Artifact:   loadArtifactConfig(env),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "pagesmith-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	return envBool("ARTIFACT_S3_USE_SSL", true)
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
