package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/adapter/chesspresenter"
	svc "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/service/chess"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

const liveWriteTimeout = 5 * time.Second

// handleLive upgrades to a websocket on which the client sends Command frames
// and receives Event frames. A move produces a "thinking" event as soon as
// the student's move is committed and a "move" event once the computer has
// answered.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	meta := metaFrom(r)
	if strings.TrimSpace(meta.Student) == "" {
		s.writeError(w, r, svc.ErrStudentRequired)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.opts.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("tutor_live_accept_failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.pingLoop(ctx, conn)

	lc := &liveConn{srv: s, conn: conn, meta: meta}
	if state, err := s.svc.State(ctx, meta); err == nil {
		_ = lc.send(ctx, chessdto.Event{Type: chessdto.EventState, State: s.presenter.State(state)})
	} else if !errors.Is(err, svc.ErrSessionNotFound) {
		_ = lc.sendError(ctx, err)
	}

	for {
		var cmd chessdto.Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.logger.Debug("tutor_live_read_failed", zap.Error(err))
			}
			return
		}
		if err := lc.dispatch(ctx, cmd); err != nil {
			return
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

type liveConn struct {
	srv  *Server
	conn *websocket.Conn
	meta svc.SessionMeta
}

// dispatch runs one command. A non-nil error means the socket is unusable.
func (lc *liveConn) dispatch(ctx context.Context, cmd chessdto.Command) error {
	s := lc.srv
	switch strings.ToLower(strings.TrimSpace(cmd.Type)) {
	case chessdto.CommandState:
		state, err := s.svc.State(ctx, lc.meta)
		if err != nil {
			return lc.sendError(ctx, err)
		}
		return lc.send(ctx, chessdto.Event{Type: chessdto.EventState, State: s.presenter.State(state)})

	case chessdto.CommandMove:
		var writeErr error
		onThinking := func(m *svc.MoveSummary) {
			writeErr = lc.send(ctx, chessdto.Event{Type: chessdto.EventThinking, Summary: s.presenter.Thinking(m)})
		}
		summary, err := s.svc.Play(ctx, lc.meta, moveInput(cmd.Move, cmd.From, cmd.To), onThinking)
		if writeErr != nil {
			return writeErr
		}
		if err != nil {
			return lc.sendError(ctx, err)
		}
		return lc.send(ctx, chessdto.Event{Type: chessdto.EventMove, Summary: s.presenter.Summary(summary)})

	case chessdto.CommandResign:
		state, err := s.svc.Resign(ctx, lc.meta)
		if err != nil {
			return lc.sendError(ctx, err)
		}
		return lc.send(ctx, chessdto.Event{Type: chessdto.EventState, State: s.presenter.State(state)})

	case chessdto.CommandHint:
		hint, err := s.svc.Hint(ctx, lc.meta)
		if err != nil {
			return lc.sendError(ctx, err)
		}
		return lc.send(ctx, chessdto.Event{Type: chessdto.EventHint, Hint: s.presenter.Hint(hint)})

	case chessdto.CommandDifficulty:
		state, err := s.svc.SetDifficulty(ctx, lc.meta, cmd.Difficulty)
		if err != nil {
			return lc.sendError(ctx, err)
		}
		return lc.send(ctx, chessdto.Event{Type: chessdto.EventState, State: s.presenter.State(state)})

	default:
		return lc.sendError(ctx, errUnknownCommand)
	}
}

var errUnknownCommand = fmt.Errorf("%w: unknown live command", chesspresenter.ErrBadRequest)

func (lc *liveConn) send(ctx context.Context, ev chessdto.Event) error {
	wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, lc.conn, ev)
}

func (lc *liveConn) sendError(ctx context.Context, err error) error {
	body := lc.srv.presenter.Error(err)
	return lc.send(ctx, chessdto.Event{Type: chessdto.EventError, Error: &body})
}
