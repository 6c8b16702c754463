package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
)

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrIllegalMove       = errors.New("illegal move")
	ErrGameOver          = errors.New("game already finished")
	ErrDifficultyLocked  = errors.New("difficulty cannot change after the first move")
	ErrNoComputerMove    = errors.New("computer has no legal move")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// The student always plays white; the computer answers as black.
const (
	PlayerColor   = chess.White
	ComputerColor = chess.Black
)

type Outcome string

const (
	OutcomeOngoing   Outcome = ""
	OutcomeWhiteWon  Outcome = "white"
	OutcomeBlackWon  Outcome = "black"
	OutcomeStalemate Outcome = "stalemate"
)

type Method string

const (
	MethodNone        Method = ""
	MethodCheckmate   Method = "checkmate"
	MethodStalemate   Method = "stalemate"
	MethodResignation Method = "resignation"
)

// Move is a committed transition as shown in the history list.
type Move struct {
	From     chess.Square
	To       chess.Square
	Piece    chess.Piece
	Captured *chess.Piece
	Notation string
	Color    chess.Color
}

// GameSession holds the caller-owned game state. The engine stays stateless;
// a session's moves must be applied one at a time.
type GameSession struct {
	ID         string
	Board      chess.Board
	Turn       chess.Color
	History    []Move
	Difficulty chess.Difficulty
	Resigned   bool
	StartedAt  time.Time
	UpdatedAt  time.Time
}

func New(id string, d chess.Difficulty) (*GameSession, error) {
	if _, err := chess.ParseDifficulty(string(d)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}
	now := time.Now()
	return &GameSession{
		ID:         id,
		Board:      chess.InitialBoard(),
		Turn:       PlayerColor,
		Difficulty: d,
		StartedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *GameSession) DifficultyLocked() bool { return len(s.History) > 0 }

func (s *GameSession) SetDifficulty(d chess.Difficulty) error {
	if _, err := chess.ParseDifficulty(string(d)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
	}
	if s.DifficultyLocked() {
		return ErrDifficultyLocked
	}
	s.Difficulty = d
	return nil
}

// Status is computed for the side to move.
func (s *GameSession) Status() chess.Status {
	return chess.GameStatus(s.Board, s.Turn)
}

func (s *GameSession) Finished() bool {
	return s.Resigned || s.Status().Over()
}

func (s *GameSession) Outcome() (Outcome, Method) {
	if s.Resigned {
		return OutcomeBlackWon, MethodResignation
	}
	st := s.Status()
	switch {
	case st.Checkmate && s.Turn == chess.White:
		return OutcomeBlackWon, MethodCheckmate
	case st.Checkmate:
		return OutcomeWhiteWon, MethodCheckmate
	case st.Stalemate:
		return OutcomeStalemate, MethodStalemate
	default:
		return OutcomeOngoing, MethodNone
	}
}

func (s *GameSession) Resign() error {
	if s.Finished() {
		return ErrGameOver
	}
	s.Resigned = true
	s.UpdatedAt = time.Now()
	return nil
}

// LegalMoves lists the destinations available to the side to move from sq.
func (s *GameSession) LegalMoves(sq chess.Square) []chess.Square {
	p := s.Board.At(sq)
	if p.Empty() || p.Color != s.Turn {
		return nil
	}
	return chess.LegalDestinations(s.Board, sq)
}

func (s *GameSession) PlayerMove(from, to chess.Square) (Move, error) {
	if s.Turn != PlayerColor {
		return Move{}, ErrNotYourTurn
	}
	return s.apply(from, to)
}

// ComputerMove asks the engine for black's reply and commits it.
func (s *GameSession) ComputerMove(e *chess.Engine) (Move, error) {
	if s.Finished() {
		return Move{}, ErrGameOver
	}
	if s.Turn != ComputerColor {
		return Move{}, ErrNotYourTurn
	}
	mv, ok := e.ComputerMove(s.Board, s.Difficulty)
	if !ok {
		return Move{}, ErrNoComputerMove
	}
	return s.apply(mv.From, mv.To)
}

func (s *GameSession) apply(from, to chess.Square) (Move, error) {
	if s.Finished() {
		return Move{}, ErrGameOver
	}
	if !from.OnBoard() || !to.OnBoard() {
		return Move{}, ErrIllegalMove
	}
	piece := s.Board.At(from)
	if piece.Empty() || piece.Color != s.Turn {
		return Move{}, ErrIllegalMove
	}
	if !containsSquare(chess.PseudoLegalMovesFor(s.Board, from, piece), to) ||
		!chess.IsMoveLegal(s.Board, from, to, s.Turn) {
		return Move{}, ErrIllegalMove
	}

	mv := Move{From: from, To: to, Piece: piece, Color: s.Turn}
	if target := s.Board.At(to); !target.Empty() {
		captured := target
		mv.Captured = &captured
	}
	mv.Notation = chess.Notate(s.Board, from, to, mv.Captured != nil)

	s.Board = chess.ApplyMove(s.Board, from, to)
	s.History = append(s.History, mv)
	s.Turn = s.Turn.Opposite()
	s.UpdatedAt = time.Now()
	return mv, nil
}

func containsSquare(squares []chess.Square, target chess.Square) bool {
	for _, sq := range squares {
		if sq == target {
			return true
		}
	}
	return false
}

// Material sums the non-king material left on the board for each side.
type Material struct {
	White int
	Black int
}

func (m Material) Diff() int { return m.White - m.Black }

func (s *GameSession) Material() Material {
	var m Material
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := s.Board[row][col]
			if p.Empty() || p.Kind == chess.King {
				continue
			}
			v := int(chess.MaterialValue(p.Kind))
			if p.Color == chess.White {
				m.White += v
			} else {
				m.Black += v
			}
		}
	}
	return m
}

// Captured lists, per capturing side, the kinds it has taken in move order.
type Captured struct {
	ByWhite []chess.Kind
	ByBlack []chess.Kind
}

func (s *GameSession) Captured() Captured {
	var c Captured
	for _, mv := range s.History {
		if mv.Captured == nil {
			continue
		}
		if mv.Color == chess.White {
			c.ByWhite = append(c.ByWhite, mv.Captured.Kind)
		} else {
			c.ByBlack = append(c.ByBlack, mv.Captured.Kind)
		}
	}
	return c
}

func (s *GameSession) LastMove() (Move, bool) {
	if len(s.History) == 0 {
		return Move{}, false
	}
	return s.History[len(s.History)-1], true
}

// CoordinateMoves returns the history as "e2e4" strings.
func (s *GameSession) CoordinateMoves() []string {
	out := make([]string, 0, len(s.History))
	for _, mv := range s.History {
		out = append(out, chess.CoordinateMove(mv.From, mv.To))
	}
	return out
}
