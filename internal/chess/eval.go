package chess

const (
	centerBonus = 0.3
	checkBonus  = 0.5
)

var materialValues = map[Kind]float64{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   100,
}

var centerSquares = [4]Square{{3, 3}, {3, 4}, {4, 3}, {4, 4}}

func MaterialValue(k Kind) float64 { return materialValues[k] }

// Evaluate scores b from c's point of view: signed material, a small bonus
// for occupying the four center squares and a flat bonus when the opponent
// is in check.
func Evaluate(b Board, c Color) float64 {
	score := 0.0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Empty() {
				continue
			}
			sign := 1.0
			if p.Color != c {
				sign = -1.0
			}
			score += sign * materialValues[p.Kind]
			if isCenter(Square{Row: row, Col: col}) {
				score += sign * centerBonus
			}
		}
	}
	if IsInCheck(b, c.Opposite()) {
		score += checkBonus
	}
	return score
}

func isCenter(sq Square) bool {
	for _, c := range centerSquares {
		if c == sq {
			return true
		}
	}
	return false
}
