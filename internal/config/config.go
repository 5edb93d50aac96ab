package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string
	ListenAddr          string
	DatabaseURL         string
	SLAThresholdHours   float64
	SweepInterval       time.Duration
	SweepConcurrency    int
	ReallocWorkers      int
	ReallocPollInterval time.Duration
	CasesCSV            string
	DCARoster           []string
	CORSOrigins         []string
	MaxConns            int
	LogLevel            string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists. Variables already set win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                 getenv("APP_ENV", "development"),
		ListenAddr:          getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SLAThresholdHours:   getenvFloat("SLA_THRESHOLD_HOURS", 48),
		SweepInterval:       getenvDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepConcurrency:    getenvInt("SWEEP_CONCURRENCY", 8),
		ReallocWorkers:      getenvInt("REALLOC_WORKERS", 2),
		ReallocPollInterval: getenvDuration("REALLOC_POLL_INTERVAL", 500*time.Millisecond),
		CasesCSV:            os.Getenv("CASES_CSV"),
		DCARoster:           getenvList("DCA_ROSTER", []string{"Apex Recovery", "Beacon Collections", "Summit Credit"}),
		CORSOrigins:         getenvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MaxConns:            getenvInt("MAX_CONNS", 256),
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}
	if cfg.SLAThresholdHours <= 0 {
		return cfg, fmt.Errorf("SLA_THRESHOLD_HOURS must be positive, got %v", cfg.SLAThresholdHours)
	}
	if cfg.ReallocPollInterval <= 0 {
		return cfg, fmt.Errorf("REALLOC_POLL_INTERVAL must be positive, got %v", cfg.ReallocPollInterval)
	}
	if len(cfg.DCARoster) == 0 {
		return cfg, errors.New("DCA_ROSTER must name at least one agency")
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return out
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return out
		}
	}
	return def
}

// getenvList splits a comma separated value, dropping blanks.
func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
