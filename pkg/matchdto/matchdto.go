// Package matchdto holds the wire types the live view serves over HTTP and
// websocket.
package matchdto

import "time"

// MatchState is a point-in-time view of the running match.
type MatchState struct {
	MatchID     string    `json:"match_id"`
	Mode        string    `json:"mode"`
	FEN         string    `json:"fen"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	Turn        string    `json:"turn"`
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	Plies       int       `json:"plies"`
	LastMove    string    `json:"last_move,omitempty"`
	SearchDepth int       `json:"search_depth"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MoveEvent is pushed to websocket subscribers after every accepted move.
type MoveEvent struct {
	MatchID string `json:"match_id"`
	Ply     int    `json:"ply"`
	MoveUCI string `json:"move_uci"`
	MoveSAN string `json:"move_san"`
	By      string `json:"by"`
	Score   int    `json:"score"`
	Status  string `json:"status"`
}

// Movers for MoveEvent.By.
const (
	MoverEngine = "engine"
	MoverHuman  = "human"
)
