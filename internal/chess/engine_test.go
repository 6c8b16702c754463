package chess

import "testing"

func TestComputerMoveAlwaysLegal(t *testing.T) {
	positions := map[string]Board{
		"initial":  InitialBoard(),
		"after e4": ApplyMove(InitialBoard(), Square{Row: 6, Col: 4}, Square{Row: 4, Col: 4}),
		"check": boardOf(t, map[string]Piece{
			"e8": bp(King), "e1": wp(King), "e4": wp(Rook), "a7": bp(Pawn),
		}),
	}
	e := NewEngine()
	for name, b := range positions {
		legal := LegalMoves(b, Black)
		for _, d := range []Difficulty{Easy, Medium, Hard} {
			for seed := int64(0); seed < 5; seed++ {
				e.SetRandomSeed(seed)
				mv, ok := e.ComputerMove(b, d)
				if !ok {
					t.Fatalf("%s/%s: no move returned", name, d)
				}
				if !Contains(legal, mv.From, mv.To) {
					t.Fatalf("%s/%s: move %v-%v is not legal", name, d, mv.From, mv.To)
				}
			}
		}
	}
}

func TestComputerMoveNoneWhenNoLegalMoves(t *testing.T) {
	e := NewEngine()
	stalemate := boardOf(t, map[string]Piece{"a8": bp(King), "c7": wp(Queen), "e1": wp(King)})
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if _, ok := e.ComputerMove(stalemate, d); ok {
			t.Fatalf("%s: expected no move on stalemate", d)
		}
		if _, ok := e.ComputerMove(backRankMate(t), d); ok {
			t.Fatalf("%s: expected no move on checkmate", d)
		}
	}
}

func TestEasyIsUniform(t *testing.T) {
	e := NewEngine()
	e.SetRandomSeed(42)
	b := InitialBoard()
	legal := LegalMoves(b, Black)

	const trials = 20000
	counts := make(map[Candidate]int, len(legal))
	for i := 0; i < trials; i++ {
		mv, ok := e.ComputerMove(b, Easy)
		if !ok {
			t.Fatalf("no move")
		}
		counts[mv]++
	}
	expected := trials / len(legal)
	for _, mv := range legal {
		got := counts[mv]
		if got < expected*7/10 || got > expected*13/10 {
			t.Fatalf("move %v-%v picked %d times, expected about %d", mv.From, mv.To, got, expected)
		}
	}
}

func TestMediumPrefersCheck(t *testing.T) {
	b := boardOf(t, map[string]Piece{
		"e8": bp(King), "a8": bp(Rook), "e1": wp(King),
	})
	e := NewEngine()
	for seed := int64(0); seed < 10; seed++ {
		e.SetRandomSeed(seed)
		mv, _ := e.ComputerMove(b, Medium)
		if mv.From != sq(t, "a8") || mv.To != sq(t, "a1") {
			t.Fatalf("seed %d: medium picked %v-%v, want a8-a1", seed, mv.From, mv.To)
		}
	}
}

func TestMediumPrefersCapture(t *testing.T) {
	b := boardOf(t, map[string]Piece{
		"g8": bp(King), "d8": bp(Rook), "d4": wp(Knight), "h1": wp(King),
	})
	e := NewEngine()
	for seed := int64(0); seed < 10; seed++ {
		e.SetRandomSeed(seed)
		mv, _ := e.ComputerMove(b, Medium)
		if mv.From != sq(t, "d8") || mv.To != sq(t, "d4") {
			t.Fatalf("seed %d: medium picked %v-%v, want d8-d4", seed, mv.From, mv.To)
		}
	}
}

func TestHardTakesHangingQueen(t *testing.T) {
	b := boardOf(t, map[string]Piece{
		"g8": bp(King), "d8": bp(Rook), "d4": wp(Queen), "h1": wp(King),
	})
	e := NewEngine()
	mv, ok := e.ComputerMove(b, Hard)
	if !ok {
		t.Fatalf("no move")
	}
	if mv.From != sq(t, "d8") || mv.To != sq(t, "d4") {
		t.Fatalf("hard picked %v-%v, want d8-d4", mv.From, mv.To)
	}
}

func TestHardIsDeterministic(t *testing.T) {
	b := ApplyMove(InitialBoard(), sq(t, "e2"), sq(t, "e4"))
	e := NewEngine()
	e.SetRandomSeed(1)
	first, _ := e.ComputerMove(b, Hard)
	for seed := int64(2); seed < 5; seed++ {
		e.SetRandomSeed(seed)
		mv, _ := e.ComputerMove(b, Hard)
		if mv != first {
			t.Fatalf("seed %d: hard picked %v, first run picked %v", seed, mv, first)
		}
	}
}

func TestHardRespectsReplyCap(t *testing.T) {
	b := InitialBoard()
	mv := LegalMoves(b, Black)[0]
	after := ApplyMove(b, mv.From, mv.To)
	replies := LegalMoves(after, White)
	if len(replies) <= defaultReplyCap {
		t.Fatalf("need more than %d replies, got %d", defaultReplyCap, len(replies))
	}

	want := 0.0
	for i, r := range replies[:defaultReplyCap] {
		v := Evaluate(ApplyMove(after, r.From, r.To), Black)
		if i == 0 || v < want {
			want = v
		}
	}
	got := scoreHard(b, Black, mv, hardPreset(t))
	if got != want {
		t.Fatalf("score = %v, want %v", got, want)
	}
}

func TestComputerMoveForWhite(t *testing.T) {
	e := NewEngine()
	b := boardOf(t, map[string]Piece{
		"e1": wp(King), "d1": wp(Rook), "d5": bp(Queen), "h8": bp(King),
	})
	mv, ok := e.ComputerMoveFor(b, White, Medium)
	if !ok {
		t.Fatalf("no move")
	}
	if mv.Piece.Color != White {
		t.Fatalf("moved %v, want a white piece", mv.Piece)
	}
	if mv.To != sq(t, "d5") {
		t.Fatalf("medium for white picked %v, want capture on d5", mv.To)
	}
}

func TestHardScoringRules(t *testing.T) {
	// c6c5 and c6xb5 both end at -1 after white's worst reply (a4xb5 in the
	// capture line); king moves drop the c6 pawn and score -2.
	trade := func(t *testing.T) Board {
		return boardOf(t, map[string]Piece{
			"a8": bp(King), "c6": bp(Pawn),
			"h1": wp(King), "b5": wp(Pawn), "a4": wp(Pawn),
		})
	}

	t.Run("capture bonus breaks a tie", func(t *testing.T) {
		b := trade(t)
		p := hardPreset(t)
		push := Candidate{From: sq(t, "c6"), To: sq(t, "c5"), Piece: bp(Pawn)}
		capture := Candidate{From: sq(t, "c6"), To: sq(t, "b5"), Piece: bp(Pawn)}

		noBonus := p
		noBonus.CaptureBonus = 0
		if a, c := scoreHard(b, Black, push, noBonus), scoreHard(b, Black, capture, noBonus); a != c {
			t.Fatalf("setup: scores without bonus differ: push=%v capture=%v", a, c)
		}
		want := scoreHard(b, Black, capture, noBonus) + p.CaptureBonus*MaterialValue(Pawn)
		if got := scoreHard(b, Black, capture, p); got != want {
			t.Fatalf("capture score = %v, want %v", got, want)
		}
		if mv := selectHard(b, Black, LegalMoves(b, Black), p); mv.From != capture.From || mv.To != capture.To {
			t.Fatalf("hard picked %v-%v, want c6xb5", mv.From, mv.To)
		}
	})

	t.Run("ties keep the earliest move", func(t *testing.T) {
		b := trade(t)
		p := hardPreset(t)
		p.CaptureBonus = 0
		mv := selectHard(b, Black, LegalMoves(b, Black), p)
		if mv.From != sq(t, "c6") || mv.To != sq(t, "c5") {
			t.Fatalf("hard picked %v-%v, want c6c5 (first of the tied moves)", mv.From, mv.To)
		}

		reversed := []Candidate{
			{From: sq(t, "c6"), To: sq(t, "b5"), Piece: bp(Pawn)},
			{From: sq(t, "c6"), To: sq(t, "c5"), Piece: bp(Pawn)},
		}
		if mv := selectHard(b, Black, reversed, p); mv != reversed[0] {
			t.Fatalf("hard picked %v, want the first candidate %v", mv, reversed[0])
		}
	})

	t.Run("no reply scores the position after the move", func(t *testing.T) {
		b := boardOf(t, map[string]Piece{
			"h8": bp(King), "a8": bp(Rook),
			"h1": wp(King), "g2": wp(Pawn), "h2": wp(Pawn),
		})
		mate := Candidate{From: sq(t, "a8"), To: sq(t, "a1"), Piece: bp(Rook)}
		after := ApplyMove(b, mate.From, mate.To)
		if len(LegalMoves(after, White)) != 0 {
			t.Fatalf("setup: white should have no reply after Ra1")
		}
		if got, want := scoreHard(b, Black, mate, hardPreset(t)), Evaluate(after, Black); got != want {
			t.Fatalf("score = %v, want Evaluate(after) = %v", got, want)
		}
		mv, ok := NewEngine().ComputerMove(b, Hard)
		if !ok || mv != mate {
			t.Fatalf("hard picked %v, want Ra1 mate", mv)
		}
	})
}
