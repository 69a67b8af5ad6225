package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

// SnapshotCache holds course completion per (student, course). Entries are dropped on every
// ledger write for the pair, so a hit never outlives the data it was computed from.
type SnapshotCache interface {
	Get(ctx context.Context, studentID, courseID uuid.UUID) (*completion.Snapshot, error)
	Set(ctx context.Context, studentID, courseID uuid.UUID, snap completion.Snapshot) error
	Invalidate(ctx context.Context, studentID, courseID uuid.UUID) error
}

type snapshotCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSnapshotCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) (SnapshotCache, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &snapshotCache{log: log.With("service", "RedisSnapshotCache"), rdb: rdb, ttl: ttl}, nil
}

func SnapshotKey(studentID, courseID uuid.UUID) string {
	return "progress:snapshot:" + studentID.String() + ":" + courseID.String()
}

// Get returns nil, nil on a miss.
func (c *snapshotCache) Get(ctx context.Context, studentID, courseID uuid.UUID) (*completion.Snapshot, error) {
	raw, err := c.rdb.Get(ctx, SnapshotKey(studentID, courseID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap completion.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.log.Warn("dropping unreadable snapshot", "error", err, "course_id", courseID)
		_ = c.rdb.Del(ctx, SnapshotKey(studentID, courseID)).Err()
		return nil, nil
	}
	return &snap, nil
}

func (c *snapshotCache) Set(ctx context.Context, studentID, courseID uuid.UUID, snap completion.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, SnapshotKey(studentID, courseID), raw, c.ttl).Err()
}

func (c *snapshotCache) Invalidate(ctx context.Context, studentID, courseID uuid.UUID) error {
	return c.rdb.Del(ctx, SnapshotKey(studentID, courseID)).Err()
}
