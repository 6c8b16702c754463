package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

// Archive is the standard-notation export of a tutor game.
type Archive struct {
	MovesSAN []string
	PGN      string
	FEN      string
	ECOCode  string
	ECOTitle string
}

// uciMove adds the queen suffix to promotions so standard decoders accept
// the move; the tutor board always promotes to a queen.
func uciMove(mv session.Move) string {
	text := corechess.CoordinateMove(mv.From, mv.To)
	if mv.Piece.Kind == corechess.Pawn && (mv.To.Row == 0 || mv.To.Row == 7) {
		text += "q"
	}
	return text
}

// BuildArchive replays the history on a standard chess board. Tutor moves
// are a subset of standard legal moves, so any decode failure means the
// history itself is corrupt. The PGN result comes from the tutor's outcome;
// the replay board's own draw detection (repetition, move limits, material)
// is ignored.
func BuildArchive(history []session.Move, outcome session.Outcome, method session.Method) (Archive, error) {
	game := nchess.NewGame()
	uci := nchess.UCINotation{}
	san := nchess.AlgebraicNotation{}

	out := Archive{MovesSAN: make([]string, 0, len(history))}
	for i, mv := range history {
		text := uciMove(mv)
		pos := game.Position()
		move, err := uci.Decode(pos, text)
		if err != nil {
			return Archive{}, fmt.Errorf("decode move %d %s: %w", i+1, text, err)
		}
		out.MovesSAN = append(out.MovesSAN, san.Encode(pos, move))
		if err := game.Move(move, nil); err != nil {
			return Archive{}, fmt.Errorf("apply move %d %s: %w", i+1, text, err)
		}
	}

	if book := opening.NewBookECO(); book != nil {
		if eco := book.Find(game.Moves()); eco != nil {
			out.ECOCode = eco.Code()
			out.ECOTitle = eco.Title()
		}
	}
	out.PGN = formatPGN(out.MovesSAN, outcome, method)
	out.FEN = game.FEN()
	return out, nil
}

func pgnResult(outcome session.Outcome) string {
	switch outcome {
	case session.OutcomeWhiteWon:
		return "1-0"
	case session.OutcomeBlackWon:
		return "0-1"
	case session.OutcomeStalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func formatPGN(movesSAN []string, outcome session.Outcome, method session.Method) string {
	result := pgnResult(outcome)
	var b strings.Builder
	b.WriteString("[Event \"Chess tutor practice\"]\n")
	b.WriteString("[White \"Student\"]\n")
	b.WriteString("[Black \"Tutor\"]\n")
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	if method != session.MethodNone {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", method)
	}
	b.WriteString("\n")
	for i, mv := range movesSAN {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(mv)
		b.WriteByte(' ')
	}
	b.WriteString(result)
	return b.String()
}
