package chesspresenter

import (
	corechess "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
	svc "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/session"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

func ToDTOState(s *svc.SessionState) *chessdto.SessionState {
	if s == nil {
		return nil
	}
	out := &chessdto.SessionState{
		SessionUUID:      s.SessionUUID,
		StudentName:      s.StudentName,
		Difficulty:       string(s.Difficulty),
		DifficultyLocked: s.DifficultyLocked,
		Board:            toDTOBoard(s.Board),
		Turn:             s.Turn.String(),
		Status: chessdto.GameStatus{
			InCheck:   s.Status.InCheck,
			Checkmate: s.Status.Checkmate,
			Stalemate: s.Status.Stalemate,
		},
		Outcome:     string(s.Outcome),
		Method:      string(s.Method),
		History:     ToDTOMoves(s.History),
		LastMove:    ToDTOMovePtr(s.LastMove),
		Material:    toDTOMaterial(s.Material),
		Captured:    toDTOCaptured(s.Captured),
		StartedAt:   s.StartedAt,
		UpdatedAt:   s.UpdatedAt,
		Profile:     ToDTOProfile(s.Profile),
		RatingDelta: s.RatingDelta,
		GameID:      s.GameID,
	}
	return out
}

func ToDTOMoveSummary(m *svc.MoveSummary) *chessdto.MoveSummary {
	if m == nil {
		return nil
	}
	out := &chessdto.MoveSummary{
		State:    ToDTOState(m.State),
		Player:   ToDTOMove(m.Player),
		Computer: ToDTOMovePtr(m.Computer),
		Finished: m.Finished,
	}
	if m.Archive != nil {
		out.SAN = append([]string(nil), m.Archive.MovesSAN...)
		out.PGN = m.Archive.PGN
	}
	return out
}

func ToDTOMove(mv session.Move) chessdto.Move {
	out := chessdto.Move{
		From:     corechess.SquareName(mv.From),
		To:       corechess.SquareName(mv.To),
		Piece:    toDTOPiece(mv.Piece),
		Notation: mv.Notation,
		Color:    mv.Color.String(),
	}
	if mv.Captured != nil {
		p := toDTOPiece(*mv.Captured)
		out.Captured = &p
	}
	return out
}

func ToDTOMovePtr(mv *session.Move) *chessdto.Move {
	if mv == nil {
		return nil
	}
	out := ToDTOMove(*mv)
	return &out
}

func ToDTOMoves(history []session.Move) []chessdto.Move {
	out := make([]chessdto.Move, 0, len(history))
	for _, mv := range history {
		out = append(out, ToDTOMove(mv))
	}
	return out
}

func ToDTOHint(h *svc.Hint) *chessdto.Hint {
	if h == nil {
		return nil
	}
	return &chessdto.Hint{
		From:     corechess.SquareName(h.From),
		To:       corechess.SquareName(h.To),
		Notation: h.Notation,
	}
}

func ToDTOSquares(squares []corechess.Square) []string {
	out := make([]string, 0, len(squares))
	for _, sq := range squares {
		out = append(out, corechess.SquareName(sq))
	}
	return out
}

func ToDTOGame(g *domain.TutorGame) *chessdto.TutorGame {
	if g == nil {
		return nil
	}
	return &chessdto.TutorGame{
		ID:          g.ID,
		SessionUUID: g.SessionUUID,
		Difficulty:  g.Difficulty,
		Result:      g.Result,
		Method:      g.Method,
		Moves:       append([]string(nil), g.Moves...),
		Notation:    append([]string(nil), g.Notation...),
		MovesSAN:    append([]string(nil), g.MovesSAN...),
		PGN:         g.PGN,
		FinalFEN:    g.FinalFEN,
		ECOCode:     g.ECOCode,
		ECOTitle:    g.ECOTitle,
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
		Duration:    g.Duration,
	}
}

func ToDTOGames(games []*domain.TutorGame) []*chessdto.TutorGame {
	out := make([]*chessdto.TutorGame, 0, len(games))
	for _, g := range games {
		if dto := ToDTOGame(g); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}

func ToDTOProfile(p *domain.StudentProfile) *chessdto.StudentProfile {
	if p == nil {
		return nil
	}
	return &chessdto.StudentProfile{
		PreferredDifficulty: p.PreferredDifficulty,
		Rating:              p.Rating,
		GamesPlayed:         p.GamesPlayed,
		Wins:                p.Wins,
		Losses:              p.Losses,
		Draws:               p.Draws,
		Streak:              p.Streak,
		StreakType:          p.StreakType,
		LastDifficulty:      p.LastDifficulty,
		LastPlayedAt:        p.LastPlayedAt,
	}
}

func toDTOBoard(b corechess.Board) [8][8]*chessdto.Piece {
	var out [8][8]*chessdto.Piece
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Empty() {
				continue
			}
			dto := toDTOPiece(p)
			out[row][col] = &dto
		}
	}
	return out
}

func toDTOPiece(p corechess.Piece) chessdto.Piece {
	return chessdto.Piece{Kind: p.Kind.String(), Color: p.Color.String()}
}

func toDTOMaterial(m session.Material) chessdto.MaterialScore {
	return chessdto.MaterialScore{White: m.White, Black: m.Black, Diff: m.Diff()}
}

func toDTOCaptured(c session.Captured) chessdto.CapturedPieces {
	return chessdto.CapturedPieces{
		ByWhite: kindNames(c.ByWhite),
		ByBlack: kindNames(c.ByBlack),
	}
}

func kindNames(kinds []corechess.Kind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.String())
	}
	return out
}
