package chesspresenter

import (
	"fmt"
	"strings"
	"testing"
	"time"

	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/msgcat"
	svc "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
)

func newPresenter(t *testing.T) *Presenter {
	t.Helper()
	return NewPresenter(NewFormatter(msgcat.MustNew(), time.UTC))
}

func sq(t *testing.T, name string) corechess.Square {
	t.Helper()
	s, err := corechess.ParseSquare(name)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return s
}

func TestStateConversion(t *testing.T) {
	p := newPresenter(t)
	game, err := session.New("s-1", corechess.Medium)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := game.PlayerMove(sq(t, "e2"), sq(t, "e4")); err != nil {
		t.Fatalf("player move: %v", err)
	}
	last, _ := game.LastMove()
	state := &svc.SessionState{
		SessionUUID: game.ID,
		StudentName: "Ada",
		Difficulty:  game.Difficulty,
		Board:       game.Board,
		Turn:        game.Turn,
		Status:      game.Status(),
		History:     game.History,
		LastMove:    &last,
		Material:    game.Material(),
	}

	dto := p.State(state)
	if dto.Turn != "black" || dto.Difficulty != "medium" {
		t.Fatalf("unexpected turn/difficulty: %+v", dto)
	}
	if piece := dto.Board[4][4]; piece == nil || piece.Kind != "pawn" || piece.Color != "white" {
		t.Fatalf("expected white pawn on e4, got %+v", piece)
	}
	if dto.Board[6][4] != nil {
		t.Fatalf("e2 should be empty")
	}
	if len(dto.History) != 1 || dto.History[0].Notation != "e4" || dto.History[0].From != "e2" {
		t.Fatalf("unexpected history %+v", dto.History)
	}
	if dto.LastMove == nil || dto.LastMove.To != "e4" {
		t.Fatalf("unexpected last move %+v", dto.LastMove)
	}
	if dto.Material.Diff != 0 || dto.Material.White != 39 {
		t.Fatalf("unexpected material %+v", dto.Material)
	}
	if dto.StatusText != "Waiting for the computer." {
		t.Fatalf("unexpected status text %q", dto.StatusText)
	}
}

func TestStatusText(t *testing.T) {
	f := NewFormatter(msgcat.MustNew(), nil)
	cases := []struct {
		name  string
		state *svc.SessionState
		want  string
	}{
		{"your turn", &svc.SessionState{Turn: corechess.White, Difficulty: corechess.Hard}, "Your move. Playing white against the hard computer."},
		{"check", &svc.SessionState{Turn: corechess.White, Status: corechess.Status{InCheck: true}}, "Check! Your king is under attack."},
		{"win", &svc.SessionState{Turn: corechess.Black, Status: corechess.Status{InCheck: true, Checkmate: true}, Outcome: session.OutcomeWhiteWon, Method: session.MethodCheckmate}, "Checkmate! You win."},
		{"loss", &svc.SessionState{Turn: corechess.White, Status: corechess.Status{InCheck: true, Checkmate: true}, Outcome: session.OutcomeBlackWon, Method: session.MethodCheckmate}, "Checkmate. The computer wins."},
		{"stalemate", &svc.SessionState{Turn: corechess.Black, Status: corechess.Status{Stalemate: true}, Outcome: session.OutcomeStalemate, Method: session.MethodStalemate}, "Stalemate. The game is a draw."},
		{"resigned", &svc.SessionState{Turn: corechess.White, Outcome: session.OutcomeBlackWon, Method: session.MethodResignation}, "You resigned. The computer wins."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.Status(ToDTOState(tc.state)); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSummaryText(t *testing.T) {
	p := newPresenter(t)
	pawn := corechess.Piece{Kind: corechess.Pawn, Color: corechess.White}
	knight := corechess.Piece{Kind: corechess.Knight, Color: corechess.Black}
	summary := &svc.MoveSummary{
		State: &svc.SessionState{Turn: corechess.White, Difficulty: corechess.Easy},
		Player: session.Move{
			From: sq(t, "d2"), To: sq(t, "d4"), Piece: pawn, Notation: "d4", Color: corechess.White,
		},
		Computer: &session.Move{
			From: sq(t, "b4"), To: sq(t, "c3"), Piece: knight, Captured: &corechess.Piece{Kind: corechess.Knight, Color: corechess.White},
			Notation: "Nxc3", Color: corechess.Black,
		},
	}
	dto := p.Summary(summary)
	want := strings.Join([]string{
		"You played d4.",
		"Computer replied Nxc3.",
		"The computer captured a knight.",
		"Your move. Playing white against the easy computer.",
	}, "\n")
	if dto.Text != want {
		t.Fatalf("unexpected text:\n%s", dto.Text)
	}
	if dto.Computer == nil || dto.Computer.Captured == nil || dto.Computer.Captured.Kind != "knight" {
		t.Fatalf("capture not converted: %+v", dto.Computer)
	}

	thinking := p.Thinking(&svc.MoveSummary{State: summary.State, Player: summary.Player})
	if thinking.Text != "You played d4.\nThe computer is thinking..." {
		t.Fatalf("unexpected thinking text %q", thinking.Text)
	}
}

func TestFinishedSummaryShowsRating(t *testing.T) {
	p := newPresenter(t)
	summary := &svc.MoveSummary{
		Finished: true,
		State: &svc.SessionState{
			Turn:        corechess.White,
			Status:      corechess.Status{InCheck: true, Checkmate: true},
			Outcome:     session.OutcomeBlackWon,
			Method:      session.MethodCheckmate,
			Profile:     &domain.StudentProfile{Rating: 990},
			RatingDelta: -10,
		},
		Player:  session.Move{Notation: "g4"},
		Archive: &svc.Archive{MovesSAN: []string{"f3", "e5", "g4", "Qh4#"}, PGN: "1. f3 e5"},
	}
	dto := p.Summary(summary)
	if !strings.HasSuffix(dto.Text, "Rating 990 (-10).") {
		t.Fatalf("rating line missing: %q", dto.Text)
	}
	if len(dto.SAN) != 4 || dto.PGN == "" {
		t.Fatalf("archive not copied: %+v", dto)
	}
}

func TestHistoryLines(t *testing.T) {
	p := newPresenter(t)
	empty := p.History(nil)
	if len(empty.Games) != 0 || len(empty.Lines) != 1 || empty.Lines[0] != "No finished games yet." {
		t.Fatalf("unexpected empty history %+v", empty)
	}

	ended := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	resp := p.History([]*domain.TutorGame{{
		ID: 7, Difficulty: "hard", Result: "win", Method: "checkmate",
		Moves: []string{"e2e4", "e7e5", "f1c4"}, ECOCode: "C20", ECOTitle: "King's Pawn Game", EndedAt: ended,
	}})
	want := "#7 2026-03-01 14:05 hard: win by checkmate in 3 plies [C20 King's Pawn Game]"
	if resp.Lines[0] != want {
		t.Fatalf("got %q want %q", resp.Lines[0], want)
	}
}

func TestHintAndProfileText(t *testing.T) {
	p := newPresenter(t)
	h := p.Hint(&svc.Hint{From: sq(t, "g1"), To: sq(t, "f3"), Notation: "Nf3"})
	if h.Text != "Try Nf3 (g1 to f3)." {
		t.Fatalf("unexpected hint %q", h.Text)
	}
	got := p.Formatter().Profile(ToDTOProfile(&domain.StudentProfile{Rating: 1012, GamesPlayed: 3, Wins: 2, Losses: 1}))
	if got != "Rating 1012 after 3 games (2W 1L 0D)." {
		t.Fatalf("unexpected profile %q", got)
	}
}

func TestErrorMapping(t *testing.T) {
	p := newPresenter(t)
	cases := map[error]string{
		svc.ErrInvalidMove: "invalid_move",
		fmt.Errorf("wrap: %w", svc.ErrDifficultyLocked): "difficulty_locked",
		svc.ErrConcurrentUpdate:                         "concurrent_update",
		svc.ErrStudentRequired:                          "student_required",
		fmt.Errorf("dial tcp: refused"):                 "internal",
	}
	for err, code := range cases {
		got := p.Error(err)
		if got.Code != code {
			t.Fatalf("%v: got code %q want %q", err, got.Code, code)
		}
		if got.Message == "" || got.Message == code {
			t.Fatalf("%v: message not rendered: %+v", err, got)
		}
	}
	if !p.Error(svc.ErrConcurrentUpdate).Retryable {
		t.Fatalf("concurrent updates should be retryable")
	}
	if ErrorCode(nil) != "" {
		t.Fatalf("nil error should have no code")
	}
}
