package session

import (
	"fmt"
	"time"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
)

// Snapshot is the persisted form of a session. The board is not stored;
// Restore rebuilds it by replaying Moves from the initial position.
type Snapshot struct {
	ID         string    `json:"id"`
	Difficulty string    `json:"difficulty"`
	Moves      []string  `json:"moves"`
	Resigned   bool      `json:"resigned,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *GameSession) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.ID,
		Difficulty: string(s.Difficulty),
		Moves:      s.CoordinateMoves(),
		Resigned:   s.Resigned,
		StartedAt:  s.StartedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// Restore replays a snapshot. Each move is checked for legality, so a
// tampered payload fails instead of producing an impossible board.
func Restore(snap Snapshot) (*GameSession, error) {
	d, err := chess.ParseDifficulty(snap.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}
	s, err := New(snap.ID, d)
	if err != nil {
		return nil, err
	}
	for i, raw := range snap.Moves {
		from, to, err := chess.ParseCoordinateMove(raw)
		if err != nil {
			return nil, fmt.Errorf("replay move %d: %w", i+1, err)
		}
		if _, err := s.apply(from, to); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, raw, err)
		}
	}
	s.Resigned = snap.Resigned
	s.StartedAt = snap.StartedAt
	s.UpdatedAt = snap.UpdatedAt
	return s, nil
}
