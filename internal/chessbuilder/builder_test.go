package chessbuilder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/config"
	svcchess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		DefaultDifficulty: "easy",
		SessionTTLSec:     60,
		HistoryLimit:      5,
		ThinkDelay:        -1,
		TimeZone:          time.UTC,
	}
}

func TestNewInMemory(t *testing.T) {
	deps, err := New(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	if _, ok := deps.Store.(*svcchess.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", deps.Store)
	}
	rec := httptest.NewRecorder()
	deps.Server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	if _, ok := deps.Store.(*svcchess.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", deps.Store)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/tutor/session", nil)
	req.Header.Set("X-Student-Id", "ada")
	req.Header.Set("X-Course-Id", "chess-101")
	rec := httptest.NewRecorder()
	deps.Server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one session key in redis, got %v", mr.Keys())
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := baseConfig()
	cfg.RedisURL = "http://not-redis"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for bad redis url")
	}
	cfg = baseConfig()
	cfg.MessagesDir = t.TempDir() + "/missing"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing messages dir")
	}
}

func TestNewAppliesHardReplyCap(t *testing.T) {
	orig, err := corechess.GetPreset(corechess.Hard)
	if err != nil {
		t.Fatalf("hard preset: %v", err)
	}
	t.Cleanup(func() { _ = corechess.SetPreset(orig) })

	cfg := baseConfig()
	cfg.HardReplyCap = 3
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	got, _ := corechess.GetPreset(corechess.Hard)
	if got.ReplyCap != 3 || got.CaptureBonus != orig.CaptureBonus || got.ThinkDelay != orig.ThinkDelay {
		t.Fatalf("unexpected hard preset %+v", got)
	}
}
