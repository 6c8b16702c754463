package chess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

var (
	ErrSessionNotFound   = errors.New("tutor session not found")
	ErrSessionInProgress = errors.New("tutor session already in progress")
	ErrInvalidMove       = errors.New("invalid chess move")
	ErrInvalidSquare     = errors.New("invalid square")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrGameFinished      = errors.New("game already finished")
	ErrDifficultyLocked  = errors.New("difficulty is locked after the first move")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrGameNotFound      = errors.New("tutor game not found")
	ErrProfileNotFound   = errors.New("student profile not found")
	ErrCourseNotAllowed  = errors.New("course not allowed")
	ErrNoHint            = errors.New("no hint available")
	ErrStudentRequired   = errors.New("student id is required")
)

const (
	defaultStudentRating = 1000
	kFactor              = 24
	maxHistoryLimit      = 50
	nameRuneLimit        = 24
	defaultStudentLabel  = "Student"
)

// ResultNotifier receives every finished game. Failures are logged and never
// undo the result.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, game *domain.TutorGame, profile *domain.StudentProfile) error
}

type SessionMeta struct {
	Student     string
	Course      string
	StudentName string
}

type identity struct {
	Key         string
	StudentHash string
	CourseHash  string
}

type Config struct {
	DefaultDifficulty string
	SessionTTL        time.Duration
	HistoryLimit      int
	// ThinkDelay overrides the per-difficulty delay when positive; a
	// negative value disables the pause entirely.
	ThinkDelay     time.Duration
	AllowedCourses []string
}

type Service struct {
	engine         *corechess.Engine
	store          SessionStore
	repo           Repository
	renderer       BoardRenderer
	notifier       ResultNotifier
	cfg            Config
	allowedCourses map[string]struct{}
	logger         *zap.Logger
	now            func() time.Time
}

type SessionState struct {
	SessionUUID      string
	StudentHash      string
	CourseHash       string
	StudentName      string
	Difficulty       corechess.Difficulty
	DifficultyLocked bool
	Board            corechess.Board
	Turn             corechess.Color
	Status           corechess.Status
	Outcome          session.Outcome
	Method           session.Method
	History          []session.Move
	LastMove         *session.Move
	Material         session.Material
	Captured         session.Captured
	StartedAt        time.Time
	UpdatedAt        time.Time
	Profile          *domain.StudentProfile
	RatingDelta      int
	GameID           int64
}

func (s *SessionState) Finished() bool {
	return s != nil && s.Outcome != session.OutcomeOngoing
}

type MoveSummary struct {
	State    *SessionState
	Player   session.Move
	Computer *session.Move
	Finished bool
	Archive  *Archive
}

type Hint struct {
	From     corechess.Square
	To       corechess.Square
	Notation string
}

func NewService(engine *corechess.Engine, store SessionStore, repo Repository, renderer BoardRenderer, notifier ResultNotifier, cfg Config, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("chess engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("tutor repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	def := strings.TrimSpace(cfg.DefaultDifficulty)
	if def == "" {
		def = string(corechess.Easy)
	}
	d, err := corechess.ParseDifficulty(def)
	if err != nil {
		return nil, fmt.Errorf("default difficulty validation failed: %w", err)
	}
	cfg.DefaultDifficulty = string(d)
	switch {
	case cfg.HistoryLimit <= 0:
		cfg.HistoryLimit = 10
	case cfg.HistoryLimit > maxHistoryLimit:
		cfg.HistoryLimit = maxHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]struct{})
	for _, course := range cfg.AllowedCourses {
		normalized := strings.ToLower(strings.TrimSpace(course))
		if normalized == "" {
			continue
		}
		allowed[normalized] = struct{}{}
	}
	cfg.AllowedCourses = append([]string(nil), cfg.AllowedCourses...)

	return &Service{
		engine:         engine,
		store:          store,
		repo:           repo,
		renderer:       renderer,
		notifier:       notifier,
		cfg:            cfg,
		allowedCourses: allowed,
		logger:         logger,
		now:            time.Now,
	}, nil
}

func (s *Service) Start(ctx context.Context, meta SessionMeta, difficulty string) (*SessionState, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	id := deriveIdentity(meta)

	if rec, game, err := s.load(ctx, id); err == nil {
		state := s.stateFrom(rec, game)
		state.Profile, _ = s.repo.GetProfile(ctx, id.StudentHash, id.CourseHash)
		return state, ErrSessionInProgress
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, id.StudentHash, id.CourseHash)
	if err != nil {
		return nil, err
	}
	chosen := strings.TrimSpace(difficulty)
	if chosen == "" && profile != nil {
		chosen = profile.PreferredDifficulty
	}
	if chosen == "" {
		chosen = s.cfg.DefaultDifficulty
	}
	d, err := corechess.ParseDifficulty(chosen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}

	game, err := session.New(uuid.NewString(), d)
	if err != nil {
		return nil, err
	}
	rec := &SessionRecord{
		SessionUUID: game.ID,
		StudentHash: id.StudentHash,
		CourseHash:  id.CourseHash,
		StudentName: normalizeStudentLabel(meta.StudentName),
		Game:        game.Snapshot(),
	}
	created, err := s.store.Create(ctx, id.Key, rec, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	if !created {
		existing, game, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.stateFrom(existing, game), ErrSessionInProgress
	}

	s.logger.Info("tutor_session_start",
		zap.String("session_uuid", rec.SessionUUID),
		zap.String("course_hash", id.CourseHash),
		zap.String("difficulty", string(d)),
	)
	state := s.stateFrom(rec, game)
	state.Profile = profile
	return state, nil
}

func (s *Service) State(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	id := deriveIdentity(meta)
	rec, game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateFrom(rec, game), nil
}

func (s *Service) SetDifficulty(ctx context.Context, meta SessionMeta, difficulty string) (*SessionState, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	d, err := corechess.ParseDifficulty(difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}
	id := deriveIdentity(meta)
	rec, game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := game.SetDifficulty(d); err != nil {
		return nil, mapSessionError(err)
	}
	rec.Game = game.Snapshot()
	if err := s.store.Save(ctx, id.Key, rec, s.cfg.SessionTTL); err != nil {
		return nil, err
	}
	return s.stateFrom(rec, game), nil
}

// LegalMoves lists destination squares for the piece on square, if it
// belongs to the side to move.
func (s *Service) LegalMoves(ctx context.Context, meta SessionMeta, square string) ([]corechess.Square, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	sq, err := corechess.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSquare, err)
	}
	_, game, err := s.load(ctx, deriveIdentity(meta))
	if err != nil {
		return nil, err
	}
	if game.Finished() {
		return []corechess.Square{}, nil
	}
	moves := game.LegalMoves(sq)
	if moves == nil {
		moves = []corechess.Square{}
	}
	return moves, nil
}

// Play applies the student's move and, unless the game ended, pauses for the
// think delay and commits the computer's reply. onThinking, when set, runs
// between the two moves with the state after the student's move.
func (s *Service) Play(ctx context.Context, meta SessionMeta, moveInput string, onThinking func(*MoveSummary)) (*MoveSummary, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	from, to, err := corechess.ParseCoordinateMove(moveInput)
	if err != nil {
		return nil, ErrInvalidMove
	}
	id := deriveIdentity(meta)
	rec, game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	playerMove, err := game.PlayerMove(from, to)
	if err != nil {
		return nil, mapSessionError(err)
	}
	summary := &MoveSummary{Player: playerMove}

	if !game.Finished() {
		if onThinking != nil {
			rec.Game = game.Snapshot()
			onThinking(&MoveSummary{State: s.stateFrom(rec, game), Player: playerMove})
		}
		if err := sleepCtx(ctx, s.thinkDelay(game.Difficulty)); err != nil {
			return nil, err
		}
		reply, err := game.ComputerMove(s.engine)
		if err != nil {
			return nil, mapSessionError(err)
		}
		summary.Computer = &reply
	}

	rec.Game = game.Snapshot()
	if err := s.store.Save(ctx, id.Key, rec, s.cfg.SessionTTL); err != nil {
		return nil, err
	}

	s.logger.Info("tutor_move",
		zap.String("session_uuid", rec.SessionUUID),
		zap.String("player", playerMove.Notation),
		zap.String("computer", notationOf(summary.Computer)),
		zap.String("difficulty", string(game.Difficulty)),
		zap.Int("ply", len(game.History)),
	)

	state := s.stateFrom(rec, game)
	summary.State = state
	if game.Finished() {
		summary.Finished = true
		summary.Archive = s.finish(ctx, id, rec, game, state)
	}
	return summary, nil
}

func (s *Service) Resign(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	id := deriveIdentity(meta)
	rec, game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := game.Resign(); err != nil {
		return nil, mapSessionError(err)
	}
	rec.Game = game.Snapshot()
	if err := s.store.Save(ctx, id.Key, rec, s.cfg.SessionTTL); err != nil {
		return nil, err
	}
	state := s.stateFrom(rec, game)
	s.finish(ctx, id, rec, game, state)
	return state, nil
}

// Hint suggests a move for the student using the medium policy.
func (s *Service) Hint(ctx context.Context, meta SessionMeta) (*Hint, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	_, game, err := s.load(ctx, deriveIdentity(meta))
	if err != nil {
		return nil, err
	}
	if game.Finished() {
		return nil, ErrGameFinished
	}
	if game.Turn != session.PlayerColor {
		return nil, ErrNotYourTurn
	}
	mv, ok := s.engine.ComputerMoveFor(game.Board, session.PlayerColor, corechess.Medium)
	if !ok {
		return nil, ErrNoHint
	}
	capture := !game.Board.At(mv.To).Empty()
	return &Hint{
		From:     mv.From,
		To:       mv.To,
		Notation: corechess.Notate(game.Board, mv.From, mv.To, capture),
	}, nil
}

func (s *Service) BoardImage(ctx context.Context, meta SessionMeta) ([]byte, error) {
	state, err := s.State(ctx, meta)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, state)
}

func (s *Service) Render(ctx context.Context, state *SessionState) ([]byte, error) {
	if state == nil {
		return nil, ErrSessionNotFound
	}
	opts := RenderOptions{
		Material: state.Material,
		Header:   fmt.Sprintf("%s vs Computer (%s)", labelOr(state.StudentName), state.Difficulty),
		Footer:   fmt.Sprintf("Move %d, %s to play", len(state.History)/2+1, state.Turn),
	}
	if last := state.LastMove; last != nil {
		opts.Highlight = &MoveHighlight{From: last.From, To: last.To, Color: last.Color}
	}
	return s.renderer.RenderPNG(ctx, state.Board, opts)
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.TutorGame, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, deriveIdentity(meta).StudentHash, limit)
}

func (s *Service) Game(ctx context.Context, meta SessionMeta, gameID int64) (*domain.TutorGame, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	game, err := s.repo.GetGame(ctx, gameID, deriveIdentity(meta).StudentHash)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.StudentProfile, error) {
	if err := s.ensureCourseAllowed(meta); err != nil {
		return nil, err
	}
	id := deriveIdentity(meta)
	profile, err := s.repo.GetProfile(ctx, id.StudentHash, id.CourseHash)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) load(ctx context.Context, id identity) (*SessionRecord, *session.GameSession, error) {
	rec, err := s.store.Load(ctx, id.Key)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, ErrSessionNotFound
	}
	game, err := session.Restore(rec.Game)
	if err != nil {
		return nil, nil, fmt.Errorf("restore tutor session %s: %w", rec.SessionUUID, err)
	}
	return rec, game, nil
}

// finish archives a completed game, updates the student's profile and drops
// the active session. Storage failures are logged; the caller already holds
// the final state.
func (s *Service) finish(ctx context.Context, id identity, rec *SessionRecord, game *session.GameSession, state *SessionState) *Archive {
	outcome, method := game.Outcome()
	now := s.now()
	record := &domain.TutorGame{
		SessionUUID: rec.SessionUUID,
		StudentHash: id.StudentHash,
		CourseHash:  id.CourseHash,
		Difficulty:  string(game.Difficulty),
		Result:      resultFromOutcome(outcome),
		Method:      string(method),
		Moves:       game.CoordinateMoves(),
		Notation:    notationList(game.History),
		StartedAt:   game.StartedAt,
		EndedAt:     now,
		Duration:    now.Sub(game.StartedAt),
	}

	var archive *Archive
	if a, err := BuildArchive(game.History, outcome, method); err != nil {
		s.logger.Warn("tutor archive export failed",
			zap.Error(err),
			zap.String("session_uuid", rec.SessionUUID),
		)
	} else {
		archive = &a
		record.MovesSAN = a.MovesSAN
		record.PGN = a.PGN
		record.FinalFEN = a.FEN
		record.ECOCode = a.ECOCode
		record.ECOTitle = a.ECOTitle
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	switch {
	case errors.Is(err, ErrDuplicateGame):
		if existing, fetchErr := s.repo.GetGameBySession(ctx, rec.SessionUUID, id.StudentHash); fetchErr == nil && existing != nil {
			state.GameID = existing.ID
		}
		state.Profile, _ = s.repo.GetProfile(ctx, id.StudentHash, id.CourseHash)
	case err != nil:
		s.logger.Error("tutor game persist failed", zap.Error(err), zap.String("session_uuid", rec.SessionUUID))
	default:
		record.ID = gameID
		state.GameID = gameID
		s.updateProfile(ctx, id, record, outcome, state)
	}

	if err := s.store.Delete(ctx, id.Key); err != nil {
		s.logger.Warn("failed to delete finished tutor session", zap.Error(err))
	}

	s.logger.Info("tutor_game_finished",
		zap.String("session_uuid", rec.SessionUUID),
		zap.String("result", record.Result),
		zap.String("method", record.Method),
		zap.Int("plies", len(record.Moves)),
		zap.String("eco_code", record.ECOCode),
	)

	if s.notifier != nil && record.ID != 0 {
		if err := s.notifier.NotifyResult(ctx, record, state.Profile); err != nil {
			s.logger.Warn("tutor result notification failed", zap.Error(err), zap.Int64("game_id", record.ID))
		}
	}
	return archive
}

func (s *Service) updateProfile(ctx context.Context, id identity, record *domain.TutorGame, outcome session.Outcome, state *SessionState) {
	profile, err := s.repo.GetProfile(ctx, id.StudentHash, id.CourseHash)
	if err != nil {
		s.logger.Warn("tutor profile lookup failed", zap.Error(err))
		return
	}
	profile, delta := applyGameResult(profile, id, record.Difficulty, outcome, record.EndedAt)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		s.logger.Warn("tutor profile update failed", zap.Error(err))
		return
	}
	state.Profile = profile
	state.RatingDelta = delta
}

func (s *Service) stateFrom(rec *SessionRecord, game *session.GameSession) *SessionState {
	outcome, method := game.Outcome()
	state := &SessionState{
		SessionUUID:      rec.SessionUUID,
		StudentHash:      rec.StudentHash,
		CourseHash:       rec.CourseHash,
		StudentName:      labelOr(rec.StudentName),
		Difficulty:       game.Difficulty,
		DifficultyLocked: game.DifficultyLocked(),
		Board:            game.Board,
		Turn:             game.Turn,
		Status:           game.Status(),
		Outcome:          outcome,
		Method:           method,
		History:          append([]session.Move(nil), game.History...),
		Material:         game.Material(),
		Captured:         game.Captured(),
		StartedAt:        game.StartedAt,
		UpdatedAt:        game.UpdatedAt,
	}
	if last, ok := game.LastMove(); ok {
		state.LastMove = &last
	}
	return state
}

func (s *Service) thinkDelay(d corechess.Difficulty) time.Duration {
	switch {
	case s.cfg.ThinkDelay < 0:
		return 0
	case s.cfg.ThinkDelay > 0:
		return s.cfg.ThinkDelay
	}
	preset, err := corechess.GetPreset(d)
	if err != nil {
		return 0
	}
	return preset.ThinkDelay
}

func (s *Service) ensureCourseAllowed(meta SessionMeta) error {
	if strings.TrimSpace(meta.Student) == "" {
		return ErrStudentRequired
	}
	if len(s.allowedCourses) == 0 {
		return nil
	}
	course := strings.ToLower(strings.TrimSpace(meta.Course))
	if _, ok := s.allowedCourses[course]; ok {
		return nil
	}
	s.logger.Info("tutor course access denied", zap.String("course", course))
	return ErrCourseNotAllowed
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrIllegalMove):
		return ErrInvalidMove
	case errors.Is(err, session.ErrNotYourTurn):
		return ErrNotYourTurn
	case errors.Is(err, session.ErrGameOver), errors.Is(err, session.ErrNoComputerMove):
		return ErrGameFinished
	case errors.Is(err, session.ErrDifficultyLocked):
		return ErrDifficultyLocked
	case errors.Is(err, session.ErrInvalidDifficulty):
		return ErrInvalidDifficulty
	default:
		return err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func deriveIdentity(meta SessionMeta) identity {
	course := strings.ToLower(strings.TrimSpace(meta.Course))
	student := strings.ToLower(strings.TrimSpace(meta.Student))
	studentHash := hashString(course + ":" + student)
	return identity{
		Key:         studentHash,
		StudentHash: studentHash,
		CourseHash:  hashString(course),
	}
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func normalizeStudentLabel(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	runes := []rune(cleaned)
	if len(runes) > nameRuneLimit {
		return strings.TrimSpace(string(runes[:nameRuneLimit])) + "..."
	}
	return cleaned
}

func labelOr(name string) string {
	if name = normalizeStudentLabel(name); name != "" {
		return name
	}
	return defaultStudentLabel
}

func notationList(history []session.Move) []string {
	out := make([]string, 0, len(history))
	for _, mv := range history {
		out = append(out, mv.Notation)
	}
	return out
}

func notationOf(mv *session.Move) string {
	if mv == nil {
		return ""
	}
	return mv.Notation
}

func resultFromOutcome(outcome session.Outcome) string {
	switch outcome {
	case session.OutcomeWhiteWon:
		return "win"
	case session.OutcomeBlackWon:
		return "loss"
	case session.OutcomeStalemate:
		return "draw"
	default:
		return "unknown"
	}
}

func applyGameResult(profile *domain.StudentProfile, id identity, difficulty string, outcome session.Outcome, endedAt time.Time) (*domain.StudentProfile, int) {
	if profile == nil {
		profile = &domain.StudentProfile{
			StudentHash: id.StudentHash,
			CourseHash:  id.CourseHash,
			Rating:      defaultStudentRating,
			CreatedAt:   endedAt,
		}
	}
	prev := profile.Rating

	profile.GamesPlayed++
	profile.LastDifficulty = difficulty
	profile.PreferredDifficulty = difficulty
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt

	result := resultFromOutcome(outcome)
	var score float64
	switch result {
	case "win":
		profile.Wins++
		score = 1
	case "loss":
		profile.Losses++
	default:
		profile.Draws++
		score = 0.5
	}
	if profile.StreakType == result {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = result
	}

	expected := 1 / (1 + math.Pow(10, float64(difficultyRating(difficulty)-profile.Rating)/400))
	profile.Rating = int(math.Round(float64(profile.Rating) + kFactor*(score-expected)))
	return profile, profile.Rating - prev
}

func difficultyRating(difficulty string) int {
	switch corechess.Difficulty(difficulty) {
	case corechess.Easy:
		return 600
	case corechess.Medium:
		return 900
	case corechess.Hard:
		return 1200
	default:
		return 1000
	}
}
