package lmsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
)

const activityPath = "/api/activities/chess-tutor/results"

// ActivityResult is the payload the LMS gradebook accepts for a finished
// tutor game. Student and course are the tutor's hashed identities.
type ActivityResult struct {
	GameID      int64     `json:"game_id"`
	SessionUUID string    `json:"session_uuid"`
	StudentHash string    `json:"student_hash"`
	CourseHash  string    `json:"course_hash"`
	Difficulty  string    `json:"difficulty"`
	Result      string    `json:"result"`
	Method      string    `json:"method"`
	Plies       int       `json:"plies"`
	ECOCode     string    `json:"eco_code,omitempty"`
	PGN         string    `json:"pgn,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	EndedAt     time.Time `json:"ended_at"`
	Rating      int       `json:"rating,omitempty"`
	GamesPlayed int       `json:"games_played,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDialer swaps the transport dialer; tests use an in-memory listener.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NotifyResult posts the finished game to the LMS. Transport errors and 5xx
// replies are retried with backoff.
func (c *Client) NotifyResult(ctx context.Context, game *domain.TutorGame, profile *domain.StudentProfile) error {
	if game == nil {
		return errors.New("nil tutor game")
	}
	payload := ActivityResult{
		GameID:      game.ID,
		SessionUUID: game.SessionUUID,
		StudentHash: game.StudentHash,
		CourseHash:  game.CourseHash,
		Difficulty:  game.Difficulty,
		Result:      game.Result,
		Method:      game.Method,
		Plies:       len(game.Moves),
		ECOCode:     game.ECOCode,
		PGN:         game.PGN,
		DurationMS:  game.Duration.Milliseconds(),
		EndedAt:     game.EndedAt,
	}
	if profile != nil {
		payload.Rating = profile.Rating
		payload.GamesPlayed = profile.GamesPlayed
	}
	if err := c.postJSON(ctx, activityPath, payload); err != nil {
		return err
	}
	c.logger.Debug("lms_result_reported", zap.Int64("game_id", game.ID), zap.String("result", game.Result))
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.SetBody(body)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp.Reset()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		switch {
		case err != nil:
			lastErr = fmt.Errorf("lms request failed: %w", err)
		case resp.StatusCode() < 200 || resp.StatusCode() >= 300:
			status := resp.StatusCode()
			lastErr = fmt.Errorf("lms api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return lastErr
			}
		default:
			return nil
		}

		if attempt == attempts {
			break
		}
		c.logger.Warn("lms_result_retry", zap.Int("attempt", attempt), zap.Error(lastErr))
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration doubles from 100ms and stops growing after the sixth try.
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
