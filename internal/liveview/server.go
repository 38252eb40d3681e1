// Package liveview serves the running match over HTTP: current state as
// JSON, the board as PNG, and a websocket feed of move events.
package liveview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jwhyun/plywood/internal/obslog"
	"github.com/jwhyun/plywood/internal/render"
	"github.com/jwhyun/plywood/pkg/matchdto"
)

// MatchSource is what the live view needs from the arena.
type MatchSource interface {
	State() *matchdto.MatchState
	CurrentBoard() (*nchess.Board, *render.MoveHighlight)
	Subscribe() (<-chan matchdto.MoveEvent, func())
}

// Server exposes a running match on one listen address.
type Server struct {
	addr     string
	source   MatchSource
	renderer render.BoardRenderer
	squarePx int
	logger   *zap.Logger

	httpSrv *http.Server
}

// New builds a live view server; Run starts it.
func New(addr string, source MatchSource, renderer render.BoardRenderer, squarePx int) *Server {
	s := &Server{
		addr:     addr,
		source:   source,
		renderer: renderer,
		squarePx: squarePx,
		logger:   obslog.L(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/match", s.handleMatch)
	mux.HandleFunc("/board.png", s.handleBoard)
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("liveview_listen", zap.String("addr", s.addr))
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	state := s.source.State()
	if state == nil {
		http.Error(w, "no active match", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Warn("liveview_encode_error", zap.Error(err))
	}
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, highlight := s.source.CurrentBoard()
	if board == nil {
		http.Error(w, "no active match", http.StatusNotFound)
		return
	}
	state := s.source.State()
	opts := render.Options{
		Highlight: highlight,
		SquarePx:  s.squarePx,
	}
	if state != nil {
		opts.Header = state.Mode
		opts.Score = state.Score
		opts.Turn = state.Turn
	}
	data, err := s.renderer.RenderPNG(r.Context(), board, opts)
	if err != nil {
		s.logger.Warn("liveview_render_error", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("liveview_ws_accept_error", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	events, cancel := s.source.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "feed closed")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
