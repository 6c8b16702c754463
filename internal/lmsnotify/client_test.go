package lmsnotify

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
)

type fakeLMS struct {
	mu       sync.Mutex
	statuses []int
	calls    int
	auth     string
	path     string
	last     ActivityResult
}

func (f *fakeLMS) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.auth = string(ctx.Request.Header.Peek("Authorization"))
	f.path = string(ctx.Path())
	_ = json.Unmarshal(ctx.PostBody(), &f.last)

	status := fasthttp.StatusNoContent
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	ctx.SetStatusCode(status)
}

func startFakeLMS(t *testing.T, statuses ...int) (*fakeLMS, fasthttp.DialFunc) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	fake := &fakeLMS{statuses: statuses}
	srv := &fasthttp.Server{Handler: fake.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	return fake, func(string) (net.Conn, error) { return ln.Dial() }
}

func sampleGame() *domain.TutorGame {
	return &domain.TutorGame{
		ID:          42,
		SessionUUID: "sess-1",
		StudentHash: "student",
		CourseHash:  "course",
		Difficulty:  "hard",
		Result:      "win",
		Method:      "checkmate",
		Moves:       []string{"e2e4", "e7e5", "d1h5"},
		Duration:    90 * time.Second,
		EndedAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifyResultPostsPayload(t *testing.T) {
	fake, dial := startFakeLMS(t)
	c := NewClient("http://lms.test/", WithDialer(dial), WithToken("secret"))

	err := c.NotifyResult(context.Background(), sampleGame(), &domain.StudentProfile{Rating: 1016, GamesPlayed: 4})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.calls != 1 {
		t.Fatalf("expected one call, got %d", fake.calls)
	}
	if fake.path != activityPath {
		t.Fatalf("unexpected path %q", fake.path)
	}
	if fake.auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", fake.auth)
	}
	got := fake.last
	if got.GameID != 42 || got.Result != "win" || got.Plies != 3 || got.DurationMS != 90000 || got.Rating != 1016 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestNotifyResultRetriesServerErrors(t *testing.T) {
	fake, dial := startFakeLMS(t, fasthttp.StatusServiceUnavailable, fasthttp.StatusBadGateway)
	c := NewClient("http://lms.test", WithDialer(dial), WithRetry(3))

	if err := c.NotifyResult(context.Background(), sampleGame(), nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestNotifyResultDoesNotRetryClientErrors(t *testing.T) {
	fake, dial := startFakeLMS(t, fasthttp.StatusBadRequest)
	c := NewClient("http://lms.test", WithDialer(dial), WithRetry(3))

	if err := c.NotifyResult(context.Background(), sampleGame(), nil); err == nil {
		t.Fatalf("expected error for 400")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", fake.calls)
	}
}

func TestNotifyResultGivesUp(t *testing.T) {
	fake, dial := startFakeLMS(t, 500, 500, 500)
	c := NewClient("http://lms.test", WithDialer(dial), WithRetry(2))

	if err := c.NotifyResult(context.Background(), sampleGame(), nil); err == nil {
		t.Fatalf("expected error after retries")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", fake.calls)
	}
}

func TestNotifyResultCanceledContext(t *testing.T) {
	_, dial := startFakeLMS(t)
	c := NewClient("http://lms.test", WithDialer(dial))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.NotifyResult(ctx, sampleGame(), nil); err == nil {
		t.Fatalf("expected canceled context error")
	}
}

func TestBackoffDuration(t *testing.T) {
	cases := map[int]time.Duration{
		0: 100 * time.Millisecond,
		1: 100 * time.Millisecond,
		3: 400 * time.Millisecond,
		9: 3200 * time.Millisecond,
	}
	for attempt, want := range cases {
		if got := backoffDuration(attempt); got != want {
			t.Fatalf("attempt %d: got %v want %v", attempt, got, want)
		}
	}
}
