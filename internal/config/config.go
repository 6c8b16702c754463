package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
)

type AppConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	OriginPatterns  []string

	RedisURL    string
	DatabaseURL string

	DefaultDifficulty string
	SessionTTLSec     int
	HistoryLimit      int
	// ThinkDelay is zero when unset (use the difficulty's delay) and negative
	// when TUTOR_THINK_DELAY_MS=0 disables the pause.
	ThinkDelay time.Duration
	// HardReplyCap overrides how many white replies the hard opponent
	// examines; zero keeps the preset's cap.
	HardReplyCap   int
	AllowedCourses []string
	MessagesDir    string
	TimeZone       *time.Location

	LMSBaseURL  string
	LMSAPIToken string
	LMSRetryMax int
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

// Load reads TUTOR_* and service env vars. Malformed optional values fall back
// to defaults; only values that would make the service misbehave are errors.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":8080",
		ShutdownTimeout:   10 * time.Second,
		DefaultDifficulty: string(corechess.Easy),
		SessionTTLSec:     3600,
		HistoryLimit:      10,
		TimeZone:          time.UTC,
		LMSRetryMax:       3,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_SHUTDOWN_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShutdownTimeout = time.Duration(n) * time.Second
		}
	}
	cfg.OriginPatterns = splitList(os.Getenv("TUTOR_WS_ORIGINS"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("TUTOR_DEFAULT_DIFFICULTY")); v != "" {
		d, err := corechess.ParseDifficulty(v)
		if err != nil {
			return nil, fmt.Errorf("TUTOR_DEFAULT_DIFFICULTY: %w", err)
		}
		cfg.DefaultDifficulty = string(d)
	}
	if v := strings.TrimSpace(os.Getenv("TUTOR_SESSION_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TUTOR_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TUTOR_THINK_DELAY_MS")); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 0:
			return nil, errors.New("TUTOR_THINK_DELAY_MS must be a non-negative integer")
		case n == 0:
			cfg.ThinkDelay = -1
		default:
			cfg.ThinkDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("TUTOR_HARD_REPLY_CAP")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("TUTOR_HARD_REPLY_CAP must be a positive integer")
		}
		cfg.HardReplyCap = n
	}
	cfg.AllowedCourses = splitList(os.Getenv("TUTOR_ALLOWED_COURSES"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("TUTOR_MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("TUTOR_TIMEZONE")); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("TUTOR_TIMEZONE: %w", err)
		}
		cfg.TimeZone = loc
	}

	cfg.LMSBaseURL = strings.TrimSpace(os.Getenv("LMS_BASE_URL"))
	cfg.LMSAPIToken = strings.TrimSpace(os.Getenv("LMS_API_TOKEN"))
	if v := strings.TrimSpace(os.Getenv("LMS_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LMSRetryMax = n
		}
	}
	if cfg.LMSBaseURL != "" && !strings.HasPrefix(cfg.LMSBaseURL, "http://") && !strings.HasPrefix(cfg.LMSBaseURL, "https://") {
		return nil, errors.New("LMS_BASE_URL must start with http:// or https://")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
