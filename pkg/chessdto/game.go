package chessdto

import "time"

type Piece struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

// Move is one history entry. Squares use algebraic names ("e2").
type Move struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Piece    Piece  `json:"piece"`
	Captured *Piece `json:"captured,omitempty"`
	Notation string `json:"notation"`
	Color    string `json:"color"`
}

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
	Diff  int `json:"diff"`
}

// CapturedPieces lists piece kinds taken by each side, oldest first.
type CapturedPieces struct {
	ByWhite []string `json:"by_white"`
	ByBlack []string `json:"by_black"`
}

type GameStatus struct {
	InCheck   bool `json:"in_check"`
	Checkmate bool `json:"checkmate"`
	Stalemate bool `json:"stalemate"`
}

type SessionState struct {
	SessionUUID      string          `json:"session_uuid"`
	StudentName      string          `json:"student_name"`
	Difficulty       string          `json:"difficulty"`
	DifficultyLocked bool            `json:"difficulty_locked"`
	Board            [8][8]*Piece    `json:"board"`
	Turn             string          `json:"turn"`
	Status           GameStatus      `json:"status"`
	StatusText       string          `json:"status_text"`
	Outcome          string          `json:"outcome,omitempty"`
	Method           string          `json:"method,omitempty"`
	History          []Move          `json:"history"`
	LastMove         *Move           `json:"last_move,omitempty"`
	Material         MaterialScore   `json:"material"`
	Captured         CapturedPieces  `json:"captured"`
	StartedAt        time.Time       `json:"started_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Profile          *StudentProfile `json:"profile,omitempty"`
	RatingDelta      int             `json:"rating_delta,omitempty"`
	GameID           int64           `json:"game_id,omitempty"`
}

type MoveSummary struct {
	State    *SessionState `json:"state"`
	Player   Move          `json:"player"`
	Computer *Move         `json:"computer,omitempty"`
	Finished bool          `json:"finished"`
	SAN      []string      `json:"san,omitempty"`
	PGN      string        `json:"pgn,omitempty"`
	Text     string        `json:"text"`
}

type Hint struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Notation string `json:"notation"`
	Text     string `json:"text"`
}

type TutorGame struct {
	ID          int64         `json:"id"`
	SessionUUID string        `json:"session_uuid"`
	Difficulty  string        `json:"difficulty"`
	Result      string        `json:"result"`
	Method      string        `json:"method"`
	Moves       []string      `json:"moves"`
	Notation    []string      `json:"notation"`
	MovesSAN    []string      `json:"moves_san,omitempty"`
	PGN         string        `json:"pgn,omitempty"`
	FinalFEN    string        `json:"final_fen,omitempty"`
	ECOCode     string        `json:"eco_code,omitempty"`
	ECOTitle    string        `json:"eco_title,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	Duration    time.Duration `json:"duration_ns"`
}

type StudentProfile struct {
	PreferredDifficulty string    `json:"preferred_difficulty,omitempty"`
	Rating              int       `json:"rating"`
	GamesPlayed         int       `json:"games_played"`
	Wins                int       `json:"wins"`
	Losses              int       `json:"losses"`
	Draws               int       `json:"draws"`
	Streak              int       `json:"streak"`
	StreakType          string    `json:"streak_type,omitempty"`
	LastDifficulty      string    `json:"last_difficulty,omitempty"`
	LastPlayedAt        time.Time `json:"last_played_at"`
}
