package chess

import "testing"

func backRankMate(t *testing.T) Board {
	t.Helper()
	return boardOf(t, map[string]Piece{
		"g8": bp(King), "f7": bp(Pawn), "g7": bp(Pawn), "h7": bp(Pawn),
		"e8": wp(Queen), "e1": wp(King),
	})
}

func TestBackRankMate(t *testing.T) {
	b := backRankMate(t)
	if !IsInCheck(b, Black) {
		t.Fatalf("black should be in check")
	}
	if moves := LegalMoves(b, Black); len(moves) != 0 {
		t.Fatalf("black legal moves = %v, want none", moves)
	}
	st := GameStatus(b, Black)
	if !st.Checkmate || st.Stalemate {
		t.Fatalf("status = %+v, want checkmate", st)
	}
}

func TestStalemate(t *testing.T) {
	b := boardOf(t, map[string]Piece{
		"a8": bp(King), "c7": wp(Queen), "e1": wp(King),
	})
	st := GameStatus(b, Black)
	if st.Checkmate || !st.Stalemate || st.InCheck {
		t.Fatalf("status = %+v, want stalemate", st)
	}
}

func TestStatusOngoing(t *testing.T) {
	st := GameStatus(InitialBoard(), White)
	if st.Over() || st.InCheck {
		t.Fatalf("initial status = %+v", st)
	}
}

func TestCheckCanBeEscaped(t *testing.T) {
	b := boardOf(t, map[string]Piece{
		"e8": bp(King), "e1": wp(King), "e4": wp(Rook),
	})
	st := GameStatus(b, Black)
	if !st.InCheck || st.Checkmate || st.Stalemate {
		t.Fatalf("status = %+v, want plain check", st)
	}
	for _, mv := range LegalMoves(b, Black) {
		if mv.To.Col == 4 {
			t.Fatalf("king stays on the rook file: %v", mv.To)
		}
	}
}

func TestIsInCheckWithoutKing(t *testing.T) {
	b := boardOf(t, map[string]Piece{"e4": wp(Rook)})
	if IsInCheck(b, Black) {
		t.Fatalf("no king should mean no check")
	}
}

func TestIsSquareAttacked(t *testing.T) {
	b := boardOf(t, map[string]Piece{"b1": wp(Knight), "d2": bp(Pawn)})
	if !IsSquareAttacked(b, sq(t, "c3"), White) {
		t.Fatalf("c3 should be attacked by the knight")
	}
	if IsSquareAttacked(b, sq(t, "b2"), White) {
		t.Fatalf("b2 is not a knight target")
	}
	// pawns only attack squares they can actually move to, i.e. occupied enemy squares
	if IsSquareAttacked(b, sq(t, "e1"), Black) {
		t.Fatalf("empty diagonal is not a pawn move")
	}
}
