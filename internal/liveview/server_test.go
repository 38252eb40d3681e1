package liveview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jwhyun/plywood/internal/archive"
	"github.com/jwhyun/plywood/internal/domain"
	"github.com/jwhyun/plywood/internal/engine"
	"github.com/jwhyun/plywood/internal/render"
	"github.com/jwhyun/plywood/internal/service/arena"
	"github.com/jwhyun/plywood/pkg/matchdto"
)

func newTestServer(t *testing.T) (*httptest.Server, *arena.Arena) {
	t.Helper()
	a := arena.New(engine.New(engine.WithDepth(2)), nil, archive.NewMemoryRepository())
	srv := New(":0", a, render.NewRenderer(), 32)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, a
}

func TestMatchEndpointWithoutMatch(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/match")
	if err != nil {
		t.Fatalf("GET /match: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMatchEndpointReturnsState(t *testing.T) {
	ts, a := newTestServer(t)
	ctx := context.Background()
	if _, err := a.StartMatch(ctx, domain.ModeSelfplay); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if _, err := a.StepEngine(ctx); err != nil {
		t.Fatalf("StepEngine: %v", err)
	}

	resp, err := http.Get(ts.URL + "/match")
	if err != nil {
		t.Fatalf("GET /match: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var state matchdto.MatchState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Plies != 1 || state.Turn != "black" {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestBoardEndpointServesPNG(t *testing.T) {
	ts, a := newTestServer(t)
	if _, err := a.StartMatch(context.Background(), domain.ModeSelfplay); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	resp, err := http.Get(ts.URL + "/board.png")
	if err != nil {
		t.Fatalf("GET /board.png: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("body does not look like png (%d bytes)", len(data))
	}
}

func TestWSStreamsMoveEvents(t *testing.T) {
	ts, a := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := a.StartMatch(ctx, domain.ModeSelfplay); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The handler subscribes just after the handshake completes.
	time.Sleep(100 * time.Millisecond)

	moved, err := a.StepEngine(ctx)
	if err != nil {
		t.Fatalf("StepEngine: %v", err)
	}

	var ev matchdto.MoveEvent
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.MoveUCI != moved.MoveUCI || ev.By != matchdto.MoverEngine || ev.Ply != 1 {
		t.Fatalf("event = %+v, want ply 1 engine move %s", ev, moved.MoveUCI)
	}
}
