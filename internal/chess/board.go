package chess

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Piece is a kind/color pair. The zero value means "no piece".
type Piece struct {
	Kind  Kind
	Color Color
}

var NoPiece = Piece{}

func (p Piece) Empty() bool { return p.Kind == NoKind }

func (p Piece) String() string {
	if p.Empty() {
		return "-"
	}
	return p.Color.String() + " " + p.Kind.String()
}

type Square struct {
	Row int
	Col int
}

func (s Square) OnBoard() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) String() string { return SquareName(s) }

// Board is indexed [row][col]; row 0 is black's back rank, row 7 white's.
// It is a plain array so assignment copies it.
type Board [8][8]Piece

func (b *Board) At(sq Square) Piece { return b[sq.Row][sq.Col] }

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func InitialBoard() Board {
	var b Board
	for col, kind := range backRank {
		b[0][col] = Piece{Kind: kind, Color: Black}
		b[1][col] = Piece{Kind: Pawn, Color: Black}
		b[6][col] = Piece{Kind: Pawn, Color: White}
		b[7][col] = Piece{Kind: kind, Color: White}
	}
	return b
}

// ApplyMove returns a copy of b with the piece on from moved to to. Pawns
// reaching the last rank become queens. Legality is the caller's concern.
func ApplyMove(b Board, from, to Square) Board {
	next := b
	piece := next[from.Row][from.Col]
	next[from.Row][from.Col] = NoPiece
	if piece.Kind == Pawn && (to.Row == 0 || to.Row == 7) {
		piece.Kind = Queen
	}
	next[to.Row][to.Col] = piece
	return next
}

// Count returns the number of pieces of the given color.
func (b *Board) Count(c Color) int {
	n := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; !p.Empty() && p.Color == c {
				n++
			}
		}
	}
	return n
}
