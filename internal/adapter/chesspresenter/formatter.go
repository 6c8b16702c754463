package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/msgcat"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

const shortTimeLayout = "2006-01-02 15:04"

// Formatter turns tutor DTOs into the short English lines shown next to the
// board. All wording comes from the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
	loc *time.Location
}

func NewFormatter(cat *msgcat.Catalog, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{cat: cat, loc: loc}
}

// Status describes the position from the student's side: the result when the
// game is over, otherwise check or whose turn it is.
func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return f.ErrorMessage("session_not_found")
	}
	var key string
	switch {
	case state.Method == "resignation":
		key = "status.resigned"
	case state.Status.Checkmate && state.Outcome == "white":
		key = "status.checkmate_win"
	case state.Status.Checkmate:
		key = "status.checkmate_loss"
	case state.Status.Stalemate:
		key = "status.stalemate"
	case state.Turn != "white":
		key = "status.computer_turn"
	case state.Status.InCheck:
		key = "status.check"
	default:
		key = "status.your_turn"
	}
	return f.cat.Text(key, map[string]any{"Difficulty": state.Difficulty}, key)
}

func (f *Formatter) Thinking() string {
	return f.cat.Text("status.thinking", nil, "...")
}

func (f *Formatter) Move(summary *chessdto.MoveSummary) string {
	if summary == nil {
		return ""
	}
	lines := []string{f.moveLine("move.player", summary.Player)}
	if c := capturedLine(f, "You", summary.Player); c != "" {
		lines = append(lines, c)
	}
	if summary.Computer != nil {
		lines = append(lines, f.moveLine("move.computer", *summary.Computer))
		if c := capturedLine(f, "The computer", *summary.Computer); c != "" {
			lines = append(lines, c)
		}
	}
	if state := summary.State; state != nil {
		lines = append(lines, f.Status(state))
		if summary.Finished && state.Profile != nil {
			lines = append(lines, f.cat.Text("rating.change", map[string]any{
				"Rating": state.Profile.Rating,
				"Delta":  state.RatingDelta,
			}, ""))
		}
	}
	return joinLines(lines)
}

func (f *Formatter) moveLine(key string, mv chessdto.Move) string {
	return f.cat.Text(key, map[string]any{"Notation": mv.Notation}, mv.Notation)
}

func capturedLine(f *Formatter, side string, mv chessdto.Move) string {
	if mv.Captured == nil {
		return ""
	}
	return f.cat.Text("move.capture", map[string]any{"Side": side, "Kind": mv.Captured.Kind}, "")
}

func (f *Formatter) Material(score chessdto.MaterialScore) string {
	return f.cat.Text("material.line", map[string]any{
		"White": score.White,
		"Black": score.Black,
		"Diff":  score.Diff,
	}, "")
}

func (f *Formatter) Hint(h *chessdto.Hint) string {
	if h == nil {
		return f.ErrorMessage("no_hint")
	}
	return f.cat.Text("hint.text", map[string]any{
		"Notation": h.Notation,
		"From":     h.From,
		"To":       h.To,
	}, h.Notation)
}

// History renders one line per archived game, newest first as given.
func (f *Formatter) History(games []*chessdto.TutorGame) []string {
	if len(games) == 0 {
		return []string{f.cat.Text("history.empty", nil, "")}
	}
	lines := make([]string, 0, len(games))
	for _, g := range games {
		lines = append(lines, f.Game(g))
	}
	return lines
}

func (f *Formatter) Game(g *chessdto.TutorGame) string {
	if g == nil {
		return ""
	}
	fallback := fmt.Sprintf("#%d %s", g.ID, g.Result)
	return f.cat.Text("history.line", map[string]any{
		"ID":         g.ID,
		"Ended":      f.shortTime(g.EndedAt),
		"Difficulty": g.Difficulty,
		"Result":     f.cat.Text("result."+g.Result, nil, g.Result),
		"Method":     g.Method,
		"Plies":      len(g.Moves),
		"ECO":        g.ECOCode,
		"Title":      g.ECOTitle,
	}, fallback)
}

func (f *Formatter) Profile(p *chessdto.StudentProfile) string {
	if p == nil {
		return f.ErrorMessage("profile_not_found")
	}
	return f.cat.Text("profile.summary", map[string]any{
		"Rating": p.Rating,
		"Games":  p.GamesPlayed,
		"Wins":   p.Wins,
		"Losses": p.Losses,
		"Draws":  p.Draws,
	}, "")
}

func (f *Formatter) ErrorMessage(code string) string {
	code = strings.TrimSpace(code)
	return f.cat.Text("errors."+code, nil, code)
}

func (f *Formatter) shortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(f.loc).Format(shortTimeLayout)
}

func joinLines(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
