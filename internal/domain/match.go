package domain

import "time"

// Match modes.
const (
	ModeSelfplay = "selfplay"
	ModeHuman    = "human"
)

// MatchRecord is a finished match as stored in the archive.
type MatchRecord struct {
	ID          int64
	MatchUUID   string
	Mode        string
	Result      string
	Method      string
	MovesUCI    []string
	MovesSAN    []string
	PGN         string
	FinalFEN    string
	SearchDepth int
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}
