package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/olivier-w/enchordify/internal/transport"
)

const envPrefix = "ENCHORDIFY_"

// Config holds everything the CLI, the TUI and the analysis server read
// from the environment.
type Config struct {
	// Reel geometry in terminal cells.
	PixelsPerSecond float64
	InitialOffset   float64

	Skip         time.Duration
	PollInterval time.Duration
	SettleDelay  time.Duration
	ResumeGap    time.Duration

	AnalyzerURL string // empty disables remote analysis
	AnalyzerCmd string // external analyzer command line
	CacheDB     string // empty disables the analysis cache

	UploadDir      string
	ServerAddr     string
	MaxUploadBytes int64

	LogPath  string
	LogLevel string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, fallback.Milliseconds())) * time.Millisecond
}

// Load reads a .env file from the working directory if there is one, then
// the environment. Existing environment variables win over .env entries.
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		PixelsPerSecond: getEnvFloat("PIXELS_PER_SECOND", 8),
		InitialOffset:   getEnvFloat("INITIAL_OFFSET", 6),
		Skip:            time.Duration(getEnvFloat("SKIP_SECONDS", 2) * float64(time.Second)),
		PollInterval:    getEnvMillis("POLL_INTERVAL_MS", 100*time.Millisecond),
		SettleDelay:     getEnvMillis("SETTLE_DELAY_MS", time.Second),
		ResumeGap:       getEnvMillis("RESUME_GAP_MS", time.Millisecond),
		AnalyzerURL:     getEnv("ANALYZER_URL", ""),
		AnalyzerCmd:     getEnv("ANALYZER_CMD", ""),
		CacheDB:         getEnv("CACHE_DB", defaultCacheDB()),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		ServerAddr:      getEnv("SERVER_ADDR", ":5000"),
		MaxUploadBytes:  getEnvInt("MAX_UPLOAD_BYTES", 50*1000*1000),
		LogPath:         getEnv("LOG_PATH", defaultLogPath()),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// Transport returns the controller tunables.
func (c *Config) Transport() transport.Config {
	return transport.Config{
		PixelsPerSecond: c.PixelsPerSecond,
		InitialOffset:   c.InitialOffset,
		Skip:            c.Skip,
		PollInterval:    c.PollInterval,
		SettleDelay:     c.SettleDelay,
		ResumeGap:       c.ResumeGap,
	}
}

func defaultCacheDB() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "enchordify", "analyses.db")
}

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "enchordify.log")
	}
	return filepath.Join(dir, "enchordify", "enchordify.log")
}
