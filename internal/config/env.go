package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"go-jobmarket-pipeline/pkg/utils"
)

// Env holds the process settings read from the environment.
type Env struct {
	ConfigPath    string // PIPELINE_CONFIG; empty means DataDir/pipeline.yml
	DefaultConfig string // PIPELINE_DEFAULT_CONFIG, copied to DataDir on first start
	DataDir       string // PIPELINE_DATA_DIR
	DBPath        string // PIPELINE_DB
	Addr          string // PIPELINE_ADDR
	RunTimeout    time.Duration
	SubmitRate    int // runs per minute
	SubmitBurst   int
}

// LoadEnv reads environment variables, optionally from a .env file if present.
func LoadEnv() Env {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	dataDir := getEnv("PIPELINE_DATA_DIR", "data")
	return Env{
		ConfigPath:    os.Getenv("PIPELINE_CONFIG"),
		DefaultConfig: getEnv("PIPELINE_DEFAULT_CONFIG", "config/pipeline.yml"),
		DataDir:       dataDir,
		DBPath:        getEnv("PIPELINE_DB", dataDir+"/pipeline.db"),
		Addr:          getEnv("PIPELINE_ADDR", ":8080"),
		RunTimeout:    utils.ParseDuration(os.Getenv("PIPELINE_RUN_TIMEOUT"), 10*time.Minute),
		SubmitRate:    getEnvInt("PIPELINE_SUBMIT_PER_MINUTE", 30),
		SubmitBurst:   getEnvInt("PIPELINE_SUBMIT_BURST", 5),
	}
}

// ResolveConfig returns the configuration file to load: PIPELINE_CONFIG
// when set, otherwise the user copy in DataDir, created from the default.
func (e Env) ResolveConfig() (string, error) {
	if e.ConfigPath != "" {
		return e.ConfigPath, nil
	}
	return EnsureUserConfig(e.DataDir, e.DefaultConfig)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
