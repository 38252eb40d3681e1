// Package matchstore keeps live match snapshots in redis so a running match
// can be inspected and resumed across process restarts.
package matchstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jwhyun/plywood/internal/obslog"
)

const keyPrefix = "plywood:match:"

// Snapshot is the stored state of one live match.
type Snapshot struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	FEN         string    `json:"fen"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	Turn        string    `json:"turn"`
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	SearchDepth int       `json:"search_depth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store writes snapshots with a TTL so abandoned matches expire on their own.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redis and verifies the connection with a ping.
func New(redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required for match store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

// Close releases the redis connection.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Save writes the snapshot, refreshing its TTL.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("match store not initialized")
	}
	if snap == nil || strings.TrimSpace(snap.ID) == "" {
		return fmt.Errorf("snapshot requires an id")
	}
	snap.UpdatedAt = time.Now()
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapKey(snap.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	obslog.L().Debug("match_snapshot_save",
		zap.String("match_id", snap.ID),
		zap.String("status", snap.Status),
		zap.Int("plies", len(snap.MovesUCI)))
	return nil
}

// Load returns the snapshot for the given match, nil when none exists.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("match store not initialized")
	}
	raw, err := s.rdb.Get(ctx, snapKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a finished match's snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("match store not initialized")
	}
	if err := s.rdb.Del(ctx, snapKey(id)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func snapKey(id string) string { return keyPrefix + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
