package chesspresenter

import (
	"errors"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/domain"
	svc "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

// Presenter converts service results into response DTOs with their display
// text filled in. Transports use it so the HTTP and socket paths say the same
// thing.
type Presenter struct {
	f *Formatter
}

func NewPresenter(f *Formatter) *Presenter {
	return &Presenter{f: f}
}

func (p *Presenter) Formatter() *Formatter { return p.f }

func (p *Presenter) State(s *svc.SessionState) *chessdto.SessionState {
	out := ToDTOState(s)
	if out != nil {
		out.StatusText = p.f.Status(out)
	}
	return out
}

func (p *Presenter) Summary(m *svc.MoveSummary) *chessdto.MoveSummary {
	out := ToDTOMoveSummary(m)
	if out == nil {
		return nil
	}
	if out.State != nil {
		out.State.StatusText = p.f.Status(out.State)
	}
	out.Text = p.f.Move(out)
	return out
}

// Thinking is the interim frame sent after the student's move while the
// computer has not answered yet.
func (p *Presenter) Thinking(m *svc.MoveSummary) *chessdto.MoveSummary {
	out := ToDTOMoveSummary(m)
	if out == nil {
		return nil
	}
	if out.State != nil {
		out.State.StatusText = p.f.Thinking()
	}
	out.Text = joinLines([]string{p.f.moveLine("move.player", out.Player), p.f.Thinking()})
	return out
}

func (p *Presenter) Hint(h *svc.Hint) *chessdto.Hint {
	out := ToDTOHint(h)
	if out != nil {
		out.Text = p.f.Hint(out)
	}
	return out
}

func (p *Presenter) History(games []*domain.TutorGame) *chessdto.HistoryResponse {
	dtos := ToDTOGames(games)
	return &chessdto.HistoryResponse{Games: dtos, Lines: p.f.History(dtos)}
}

// Error maps a service error to its public code and message. Unknown errors
// become "internal" so storage details never reach students.
func (p *Presenter) Error(err error) chessdto.DomainError {
	code := ErrorCode(err)
	return chessdto.DomainError{
		Code:      code,
		Message:   p.f.ErrorMessage(code),
		Retryable: code == "concurrent_update" || code == "internal",
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{svc.ErrSessionNotFound, "session_not_found"},
	{svc.ErrSessionInProgress, "session_in_progress"},
	{svc.ErrInvalidMove, "invalid_move"},
	{svc.ErrInvalidSquare, "invalid_square"},
	{svc.ErrNotYourTurn, "not_your_turn"},
	{svc.ErrGameFinished, "game_finished"},
	{svc.ErrDifficultyLocked, "difficulty_locked"},
	{svc.ErrInvalidDifficulty, "invalid_difficulty"},
	{svc.ErrGameNotFound, "game_not_found"},
	{svc.ErrProfileNotFound, "profile_not_found"},
	{svc.ErrCourseNotAllowed, "course_not_allowed"},
	{svc.ErrNoHint, "no_hint"},
	{svc.ErrConcurrentUpdate, "concurrent_update"},
	{svc.ErrStudentRequired, "student_required"},
	{ErrBadRequest, "bad_request"},
}

// ErrBadRequest marks input the transport could not decode.
var ErrBadRequest = errors.New("bad request")

func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
