package chess

type Status struct {
	InCheck   bool
	Checkmate bool
	Stalemate bool
}

func (s Status) Over() bool { return s.Checkmate || s.Stalemate }

// GameStatus is the only termination test: no legal moves means checkmate
// when in check and stalemate otherwise.
func GameStatus(b Board, c Color) Status {
	inCheck := IsInCheck(b, c)
	st := Status{InCheck: inCheck}
	if len(LegalMoves(b, c)) > 0 {
		return st
	}
	if inCheck {
		st.Checkmate = true
	} else {
		st.Stalemate = true
	}
	return st
}
