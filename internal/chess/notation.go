package chess

import (
	"fmt"
	"strings"
)

// Notate builds the simplified history text: piece letter (none for pawns),
// "x" for captures and the destination square. No check suffix and no
// disambiguation.
func Notate(b Board, from, to Square, wasCapture bool) string {
	var sb strings.Builder
	sb.WriteString(pieceLetter(b.At(from).Kind))
	if wasCapture {
		sb.WriteByte('x')
	}
	sb.WriteString(SquareName(to))
	return sb.String()
}

func pieceLetter(k Kind) string {
	switch k {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

func SquareName(sq Square) string {
	return string(rune('a'+sq.Col)) + fmt.Sprint(8-sq.Row)
}

// ParseSquare converts "e2"-style text into a Square.
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	col := int(s[0] - 'a')
	rank := int(s[1] - '0')
	sq := Square{Row: 8 - rank, Col: col}
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' || !sq.OnBoard() {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return sq, nil
}

// CoordinateMove renders a from/to pair as "e2e4". Sessions persist their
// history in this form and replay it through ApplyMove.
func CoordinateMove(from, to Square) string {
	return SquareName(from) + SquareName(to)
}

// ParseCoordinateMove accepts "e2e4", or "e7e8q" since promotion is always
// to a queen.
func ParseCoordinateMove(s string) (Square, Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && (len(s) != 5 || s[4] != 'q') {
		return Square{}, Square{}, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Square{}, Square{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Square{}, Square{}, err
	}
	return from, to, nil
}
