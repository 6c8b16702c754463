package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_URL", "DATABASE_URL", "TUTOR_DEFAULT_DIFFICULTY", "TUTOR_THINK_DELAY_MS", "TUTOR_HARD_REPLY_CAP", "TUTOR_ALLOWED_COURSES", "LMS_BASE_URL", "TUTOR_TIMEZONE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DefaultDifficulty != "easy" || cfg.HistoryLimit != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL() != time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.SessionTTL())
	}
	if cfg.ThinkDelay != 0 || cfg.HardReplyCap != 0 || cfg.AllowedCourses != nil {
		t.Fatalf("unexpected think delay/courses %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("TUTOR_DEFAULT_DIFFICULTY", "Hard")
	t.Setenv("TUTOR_SESSION_TTL", "120")
	t.Setenv("TUTOR_HISTORY_LIMIT", "bogus")
	t.Setenv("TUTOR_THINK_DELAY_MS", "250")
	t.Setenv("TUTOR_HARD_REPLY_CAP", "4")
	t.Setenv("TUTOR_ALLOWED_COURSES", " chess-101, ,algebra ")
	t.Setenv("TUTOR_TIMEZONE", "UTC")
	t.Setenv("LMS_BASE_URL", "https://lms.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.DefaultDifficulty != "hard" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.SessionTTL() != 2*time.Minute || cfg.HistoryLimit != 10 {
		t.Fatalf("unexpected ttl/history %v %d", cfg.SessionTTL(), cfg.HistoryLimit)
	}
	if cfg.ThinkDelay != 250*time.Millisecond || cfg.HardReplyCap != 4 {
		t.Fatalf("unexpected think delay %v / reply cap %d", cfg.ThinkDelay, cfg.HardReplyCap)
	}
	if len(cfg.AllowedCourses) != 2 || cfg.AllowedCourses[1] != "algebra" {
		t.Fatalf("unexpected courses %v", cfg.AllowedCourses)
	}
}

func TestThinkDelayZeroDisables(t *testing.T) {
	t.Setenv("TUTOR_THINK_DELAY_MS", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ThinkDelay >= 0 {
		t.Fatalf("expected negative think delay, got %v", cfg.ThinkDelay)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"TUTOR_DEFAULT_DIFFICULTY": "grandmaster",
		"TUTOR_THINK_DELAY_MS":     "-5",
		"TUTOR_HARD_REPLY_CAP":     "0",
		"LMS_BASE_URL":             "ftp://lms",
		"TUTOR_TIMEZONE":           "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
