package chess

import "testing"

func sq(t *testing.T, name string) Square {
	t.Helper()
	s, err := ParseSquare(name)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", name, err)
	}
	return s
}

// boardOf places pieces on an otherwise empty board, e.g. {"e1": {King, White}}.
func boardOf(t *testing.T, pieces map[string]Piece) Board {
	t.Helper()
	var b Board
	for name, p := range pieces {
		s := sq(t, name)
		b[s.Row][s.Col] = p
	}
	return b
}

func wp(k Kind) Piece { return Piece{Kind: k, Color: White} }
func bp(k Kind) Piece { return Piece{Kind: k, Color: Black} }

func hardPreset(t *testing.T) DifficultyPreset {
	t.Helper()
	p, err := GetPreset(Hard)
	if err != nil {
		t.Fatalf("GetPreset(hard): %v", err)
	}
	return p
}
