package chess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
)

var ErrDuplicateGame = errors.New("tutor game already exists")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.TutorGame) (int64, error)
	GetRecentGames(ctx context.Context, studentHash string, limit int) ([]*domain.TutorGame, error)
	GetGame(ctx context.Context, id int64, studentHash string) (*domain.TutorGame, error)
	GetGameBySession(ctx context.Context, sessionUUID string, studentHash string) (*domain.TutorGame, error)
	GetProfile(ctx context.Context, studentHash string, courseHash string) (*domain.StudentProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.StudentProfile) error
}

// Schema is applied at startup when a database is configured. It is
// idempotent and kept next to gameColumns so the column order stays in sync.
const Schema = `
CREATE TABLE IF NOT EXISTS tutor_games (
	id            BIGSERIAL PRIMARY KEY,
	session_uuid  TEXT NOT NULL UNIQUE,
	student_hash  TEXT NOT NULL,
	course_hash   TEXT NOT NULL,
	difficulty    TEXT NOT NULL,
	result        TEXT NOT NULL,
	result_method TEXT NOT NULL,
	moves         JSONB NOT NULL,
	notation      JSONB NOT NULL,
	moves_san     JSONB NOT NULL,
	pgn           TEXT NOT NULL DEFAULT '',
	final_fen     TEXT NOT NULL DEFAULT '',
	eco_code      TEXT NOT NULL DEFAULT '',
	eco_title     TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT
);
CREATE INDEX IF NOT EXISTS tutor_games_student_idx ON tutor_games (student_hash, ended_at DESC);
CREATE TABLE IF NOT EXISTS tutor_profiles (
	student_hash         TEXT NOT NULL,
	course_hash          TEXT NOT NULL,
	preferred_difficulty TEXT NOT NULL DEFAULT '',
	rating               INTEGER NOT NULL,
	games_played         INTEGER NOT NULL DEFAULT 0,
	wins                 INTEGER NOT NULL DEFAULT 0,
	losses               INTEGER NOT NULL DEFAULT 0,
	draws                INTEGER NOT NULL DEFAULT 0,
	streak               INTEGER NOT NULL DEFAULT 0,
	streak_type          TEXT NOT NULL DEFAULT '',
	last_difficulty      TEXT NOT NULL DEFAULT '',
	last_played_at       TIMESTAMPTZ,
	updated_at           TIMESTAMPTZ NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (student_hash, course_hash)
);`

const gameColumns = `
	id,
	session_uuid,
	student_hash,
	course_hash,
	difficulty,
	result,
	result_method,
	moves,
	notation,
	moves_san,
	pgn,
	final_fen,
	eco_code,
	eco_title,
	started_at,
	ended_at,
	duration_ms`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, game *domain.TutorGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil tutor game payload")
	}

	moves, err := json.Marshal(nonNil(game.Moves))
	if err != nil {
		return 0, fmt.Errorf("marshal moves: %w", err)
	}
	notation, err := json.Marshal(nonNil(game.Notation))
	if err != nil {
		return 0, fmt.Errorf("marshal notation: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(game.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO tutor_games (
			session_uuid,
			student_hash,
			course_hash,
			difficulty,
			result,
			result_method,
			moves,
			notation,
			moves_san,
			pgn,
			final_fen,
			eco_code,
			eco_title,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.StudentHash,
		game.CourseHash,
		game.Difficulty,
		game.Result,
		game.Method,
		moves,
		notation,
		movesSAN,
		game.PGN,
		game.FinalFEN,
		game.ECOCode,
		game.ECOTitle,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert tutor game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, studentHash string, limit int) ([]*domain.TutorGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM tutor_games
		WHERE student_hash = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, studentHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select tutor games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.TutorGame, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tutor games: %w", err)
	}
	return games, nil
}

func (r *repository) GetGame(ctx context.Context, id int64, studentHash string) (*domain.TutorGame, error) {
	query := `SELECT` + gameColumns + `
		FROM tutor_games
		WHERE id = $1 AND student_hash = $2`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id, studentHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string, studentHash string) (*domain.TutorGame, error) {
	query := `SELECT` + gameColumns + `
		FROM tutor_games
		WHERE session_uuid = $1 AND student_hash = $2
		LIMIT 1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID, studentHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.TutorGame, error) {
	var (
		game         domain.TutorGame
		movesJSON    []byte
		notationJSON []byte
		sanJSON      []byte
		durationMS   sql.NullInt64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.StudentHash,
		&game.CourseHash,
		&game.Difficulty,
		&game.Result,
		&game.Method,
		&movesJSON,
		&notationJSON,
		&sanJSON,
		&game.PGN,
		&game.FinalFEN,
		&game.ECOCode,
		&game.ECOTitle,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan tutor game: %w", err)
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesJSON, &game.Moves); err != nil {
		return nil, fmt.Errorf("unmarshal moves: %w", err)
	}
	if err := json.Unmarshal(notationJSON, &game.Notation); err != nil {
		return nil, fmt.Errorf("unmarshal notation: %w", err)
	}
	if err := json.Unmarshal(sanJSON, &game.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &game, nil
}

func (r *repository) GetProfile(ctx context.Context, studentHash string, courseHash string) (*domain.StudentProfile, error) {
	const query = `
		SELECT
			student_hash,
			course_hash,
			preferred_difficulty,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		FROM tutor_profiles
		WHERE student_hash = $1 AND course_hash = $2
		LIMIT 1`

	var (
		profile    domain.StudentProfile
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, studentHash, courseHash).Scan(
		&profile.StudentHash,
		&profile.CourseHash,
		&profile.PreferredDifficulty,
		&profile.Rating,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.Streak,
		&profile.StreakType,
		&profile.LastDifficulty,
		&lastPlayed,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select tutor profile: %w", err)
	}
	if lastPlayed.Valid {
		profile.LastPlayedAt = lastPlayed.Time
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.StudentProfile) error {
	if profile == nil {
		return fmt.Errorf("nil tutor profile payload")
	}
	const query = `
		INSERT INTO tutor_profiles (
			student_hash,
			course_hash,
			preferred_difficulty,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (student_hash, course_hash)
		DO UPDATE SET
			preferred_difficulty = EXCLUDED.preferred_difficulty,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_difficulty = EXCLUDED.last_difficulty,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	var lastPlayed sql.NullTime
	if !profile.LastPlayedAt.IsZero() {
		lastPlayed = sql.NullTime{Time: profile.LastPlayedAt, Valid: true}
	}
	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.StudentHash,
		profile.CourseHash,
		profile.PreferredDifficulty,
		profile.Rating,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Draws,
		profile.Streak,
		profile.StreakType,
		profile.LastDifficulty,
		lastPlayed,
	)
	if err != nil {
		return fmt.Errorf("upsert tutor profile: %w", err)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
