package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/adapter/chesspresenter"
	svc "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

const (
	HeaderStudent     = "X-Student-Id"
	HeaderCourse      = "X-Course-Id"
	HeaderStudentName = "X-Student-Name"

	maxBodyBytes = 16 << 10
)

type Options struct {
	// PingInterval keeps live sockets open through idle proxies.
	PingInterval time.Duration
	// OriginPatterns is passed to the websocket handshake; empty means
	// same-origin only.
	OriginPatterns []string
}

// Server exposes the tutor service over JSON HTTP plus a live socket.
type Server struct {
	svc       *svc.Service
	presenter *chesspresenter.Presenter
	logger    *zap.Logger
	opts      Options
	mux       *http.ServeMux
}

func NewServer(service *svc.Service, presenter *chesspresenter.Presenter, logger *zap.Logger, opts Options) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("tutor service is required")
	}
	if presenter == nil {
		return nil, fmt.Errorf("presenter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	s := &Server{svc: service, presenter: presenter, logger: logger, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /v1/tutor/session", s.handleStart)
	s.mux.HandleFunc("GET /v1/tutor/session", s.handleState)
	s.mux.HandleFunc("PUT /v1/tutor/session/difficulty", s.handleDifficulty)
	s.mux.HandleFunc("GET /v1/tutor/session/moves", s.handleLegalMoves)
	s.mux.HandleFunc("POST /v1/tutor/session/moves", s.handleMove)
	s.mux.HandleFunc("POST /v1/tutor/session/resign", s.handleResign)
	s.mux.HandleFunc("GET /v1/tutor/session/hint", s.handleHint)
	s.mux.HandleFunc("GET /v1/tutor/session/board.png", s.handleBoard)
	s.mux.HandleFunc("GET /v1/tutor/session/live", s.handleLive)

	s.mux.HandleFunc("GET /v1/tutor/games", s.handleHistory)
	s.mux.HandleFunc("GET /v1/tutor/games/{id}", s.handleGame)
	s.mux.HandleFunc("GET /v1/tutor/profile", s.handleProfile)
}

// metaFrom reads the caller identity from headers, falling back to query
// parameters for browser sockets that cannot set headers.
func metaFrom(r *http.Request) svc.SessionMeta {
	pick := func(header, query string) string {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}
		return strings.TrimSpace(r.URL.Query().Get(query))
	}
	return svc.SessionMeta{
		Student:     pick(HeaderStudent, "student"),
		Course:      pick(HeaderCourse, "course"),
		StudentName: pick(HeaderStudentName, "name"),
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req chessdto.StartRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.svc.Start(r.Context(), metaFrom(r), req.Difficulty)
	switch {
	case errors.Is(err, svc.ErrSessionInProgress) && state != nil:
		writeJSON(w, http.StatusOK, chessdto.StartResponse{State: s.presenter.State(state), Resumed: true})
	case err != nil:
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, chessdto.StartResponse{State: s.presenter.State(state)})
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.State(r.Context(), metaFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.State(state))
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req chessdto.DifficultyRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.svc.SetDifficulty(r.Context(), metaFrom(r), req.Difficulty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.State(state))
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	square := strings.TrimSpace(r.URL.Query().Get("square"))
	moves, err := s.svc.LegalMoves(r.Context(), metaFrom(r), square)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.LegalMovesResponse{
		Square: strings.ToLower(square),
		Moves:  chesspresenter.ToDTOSquares(moves),
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req chessdto.MoveRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.svc.Play(r.Context(), metaFrom(r), moveInput(req.Move, req.From, req.To), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.Summary(summary))
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Resign(r.Context(), metaFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.State(state))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	hint, err := s.svc.Hint(r.Context(), metaFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.Hint(hint))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	png, err := s.svc.BoardImage(r.Context(), metaFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	games, err := s.svc.History(r.Context(), metaFrom(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.History(games))
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, svc.ErrGameNotFound)
		return
	}
	game, err := s.svc.Game(r.Context(), metaFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGame(game))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), metaFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOProfile(profile))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := s.presenter.Error(err)
	status := statusFor(body.Code)
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		s.logger.Error("tutor_http_error", zap.Error(err), zap.String("path", r.URL.Path))
	}
	writeJSON(w, status, body)
}

func statusFor(code string) int {
	switch code {
	case "bad_request", "student_required", "invalid_square", "invalid_difficulty":
		return http.StatusBadRequest
	case "course_not_allowed":
		return http.StatusForbidden
	case "session_not_found", "game_not_found", "profile_not_found":
		return http.StatusNotFound
	case "session_in_progress", "concurrent_update", "difficulty_locked", "game_finished", "not_your_turn":
		return http.StatusConflict
	case "invalid_move", "no_hint":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// moveInput accepts either a coordinate string or a from/to pair.
func moveInput(move, from, to string) string {
	if m := strings.TrimSpace(move); m != "" {
		return m
	}
	return strings.TrimSpace(from) + strings.TrimSpace(to)
}

func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", chesspresenter.ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
