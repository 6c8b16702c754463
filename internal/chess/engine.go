package chess

import (
	"math/rand"
	"sync"
	"time"
)

// Engine picks moves for the computer side. It only owns the random source;
// every board computation goes through the package functions.
type Engine struct {
	randMu sync.Mutex
	rand   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}

// random hands out a private generator so concurrent sessions never share
// the engine-level source while selecting.
func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// ComputerMove selects black's move. ok is false when black has no legal
// move; GameStatus tells checkmate from stalemate.
func (e *Engine) ComputerMove(b Board, d Difficulty) (Candidate, bool) {
	return e.ComputerMoveFor(b, Black, d)
}

func (e *Engine) ComputerMoveFor(b Board, c Color, d Difficulty) (Candidate, bool) {
	moves := LegalMoves(b, c)
	if len(moves) == 0 {
		return Candidate{}, false
	}
	preset, err := GetPreset(d)
	if err != nil {
		preset = DifficultyPreset{Name: Easy}
	}
	r := e.random()

	switch preset.Name {
	case Medium:
		return selectMedium(b, c, moves, r), true
	case Hard:
		return selectHard(b, c, moves, preset), true
	default:
		return pickUniform(moves, r), true
	}
}

func selectMedium(b Board, c Color, moves []Candidate, r *rand.Rand) Candidate {
	var checks, captures []Candidate
	for _, mv := range moves {
		if IsInCheck(ApplyMove(b, mv.From, mv.To), c.Opposite()) {
			checks = append(checks, mv)
		}
		if !b.At(mv.To).Empty() {
			captures = append(captures, mv)
		}
	}
	if len(checks) > 0 {
		return pickUniform(checks, r)
	}
	if len(captures) > 0 {
		return pickUniform(captures, r)
	}
	return pickUniform(moves, r)
}

// selectHard is a truncated one-ply minimax: each move is scored by the worst
// outcome among the first ReplyCap replies in board-scan order.
func selectHard(b Board, c Color, moves []Candidate, p DifficultyPreset) Candidate {
	best := moves[0]
	bestScore := 0.0
	for i, mv := range moves {
		score := scoreHard(b, c, mv, p)
		if i == 0 || score > bestScore {
			best, bestScore = mv, score
		}
	}
	return best
}

func scoreHard(b Board, c Color, mv Candidate, p DifficultyPreset) float64 {
	after := ApplyMove(b, mv.From, mv.To)
	score := Evaluate(after, c)

	replies := LegalMoves(after, c.Opposite())
	if len(replies) > p.ReplyCap {
		replies = replies[:p.ReplyCap]
	}
	for i, reply := range replies {
		v := Evaluate(ApplyMove(after, reply.From, reply.To), c)
		if i == 0 || v < score {
			score = v
		}
	}

	if captured := b.At(mv.To); !captured.Empty() {
		score += p.CaptureBonus * MaterialValue(captured.Kind)
	}
	return score
}
