package domain

import "time"

// TutorGame is a finished practice game as archived for the student.
type TutorGame struct {
	ID          int64
	SessionUUID string
	StudentHash string
	CourseHash  string
	Difficulty  string
	Result      string
	Method      string
	Moves       []string
	Notation    []string
	MovesSAN    []string
	PGN         string
	FinalFEN    string
	ECOCode     string
	ECOTitle    string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

// StudentProfile aggregates a student's results within one course.
type StudentProfile struct {
	StudentHash         string
	CourseHash          string
	PreferredDifficulty string
	Rating              int
	GamesPlayed         int
	Wins                int
	Losses              int
	Draws               int
	Streak              int
	StreakType          string
	LastDifficulty      string
	LastPlayedAt        time.Time
	UpdatedAt           time.Time
	CreatedAt           time.Time
}
