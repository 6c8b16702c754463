package chess

type offset struct{ dr, dc int }

var (
	rookDirections   = []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirections = []offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	queenDirections  = append(append([]offset(nil), rookDirections...), bishopDirections...)

	knightOffsets = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// PseudoLegalMoves lists destinations for the piece on sq, ignoring whether
// the mover's king is left in check. An empty square yields nil.
func PseudoLegalMoves(b Board, sq Square) []Square {
	piece := b.At(sq)
	if piece.Empty() {
		return nil
	}
	return PseudoLegalMovesFor(b, sq, piece)
}

func PseudoLegalMovesFor(b Board, sq Square, piece Piece) []Square {
	switch piece.Kind {
	case Pawn:
		return pawnMoves(&b, sq, piece.Color)
	case Knight:
		return stepMoves(&b, sq, piece.Color, knightOffsets)
	case Bishop:
		return slideMoves(&b, sq, piece.Color, bishopDirections)
	case Rook:
		return slideMoves(&b, sq, piece.Color, rookDirections)
	case Queen:
		return slideMoves(&b, sq, piece.Color, queenDirections)
	case King:
		return stepMoves(&b, sq, piece.Color, kingOffsets)
	default:
		return nil
	}
}

func pawnMoves(b *Board, sq Square, c Color) []Square {
	dir, startRow := -1, 6
	if c == Black {
		dir, startRow = 1, 1
	}
	var out []Square

	one := Square{Row: sq.Row + dir, Col: sq.Col}
	if one.OnBoard() && b.At(one).Empty() {
		out = append(out, one)
		two := Square{Row: sq.Row + 2*dir, Col: sq.Col}
		if sq.Row == startRow && two.OnBoard() && b.At(two).Empty() {
			out = append(out, two)
		}
	}

	for _, dc := range []int{-1, 1} {
		target := Square{Row: sq.Row + dir, Col: sq.Col + dc}
		if !target.OnBoard() {
			continue
		}
		if p := b.At(target); !p.Empty() && p.Color != c {
			out = append(out, target)
		}
	}
	return out
}

func slideMoves(b *Board, sq Square, c Color, dirs []offset) []Square {
	var out []Square
	for _, d := range dirs {
		target := Square{Row: sq.Row + d.dr, Col: sq.Col + d.dc}
		for target.OnBoard() {
			p := b.At(target)
			if p.Empty() {
				out = append(out, target)
			} else {
				if p.Color != c {
					out = append(out, target)
				}
				break
			}
			target = Square{Row: target.Row + d.dr, Col: target.Col + d.dc}
		}
	}
	return out
}

func stepMoves(b *Board, sq Square, c Color, offsets []offset) []Square {
	var out []Square
	for _, d := range offsets {
		target := Square{Row: sq.Row + d.dr, Col: sq.Col + d.dc}
		if !target.OnBoard() {
			continue
		}
		if p := b.At(target); !p.Empty() && p.Color == c {
			continue
		}
		out = append(out, target)
	}
	return out
}
