package chess

// Candidate is a legal (from, to) pair together with the moving piece.
type Candidate struct {
	From  Square
	To    Square
	Piece Piece
}

func FindKing(b Board, c Color) (Square, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p.Kind == King && p.Color == c {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// IsSquareAttacked reports whether any piece of color by can reach target
// with a pseudo-legal move. Pawn pushes count too, so target should be
// occupied (the king's square in practice).
func IsSquareAttacked(b Board, target Square, by Color) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Empty() || p.Color != by {
				continue
			}
			for _, to := range PseudoLegalMovesFor(b, Square{Row: row, Col: col}, p) {
				if to == target {
					return true
				}
			}
		}
	}
	return false
}

// IsInCheck is false when c has no king on the board.
func IsInCheck(b Board, c Color) bool {
	kingSq, ok := FindKing(b, c)
	if !ok {
		return false
	}
	return IsSquareAttacked(b, kingSq, c.Opposite())
}

func IsMoveLegal(b Board, from, to Square, c Color) bool {
	return !IsInCheck(ApplyMove(b, from, to), c)
}

// LegalMoves scans the board row by row and keeps every pseudo-legal move of
// c that does not leave c in check. Nothing is cached between calls.
func LegalMoves(b Board, c Color) []Candidate {
	var out []Candidate
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Empty() || p.Color != c {
				continue
			}
			from := Square{Row: row, Col: col}
			for _, to := range PseudoLegalMovesFor(b, from, p) {
				if IsMoveLegal(b, from, to, c) {
					out = append(out, Candidate{From: from, To: to, Piece: p})
				}
			}
		}
	}
	return out
}

// LegalDestinations is LegalMoves narrowed to the piece on sq.
func LegalDestinations(b Board, sq Square) []Square {
	p := b.At(sq)
	if p.Empty() {
		return nil
	}
	var out []Square
	for _, to := range PseudoLegalMovesFor(b, sq, p) {
		if IsMoveLegal(b, sq, to, p.Color) {
			out = append(out, to)
		}
	}
	return out
}
