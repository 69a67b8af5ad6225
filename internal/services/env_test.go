package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
	"github.com/yungbote/courseledger-backend/internal/data/repos"
	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type testEnv struct {
	ctx         context.Context
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	progress    repos.ProgressRecordRepo
	catalog     CatalogService
}

// newTestEnv seeds directly on the database; services open their own transactions.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	env := &testEnv{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		courses:     repos.NewCourseRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		progress:    repos.NewProgressRecordRepo(db, log),
	}
	env.catalog = NewCatalogService(db, log,
		env.courses,
		repos.NewLessonRepo(db, log),
		repos.NewQuizRepo(db, log),
		repos.NewAssignmentRepo(db, log),
	)
	return env
}

func (e *testEnv) aggregator(opts AggregatorOptions) *aggregatorService {
	return NewAggregatorService(e.db, e.log, e.catalog, e.enrollments, e.progress, opts).(*aggregatorService)
}

type fakeWriteback struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakeWriteback) Writeback(ctx context.Context, studentID, courseID uuid.UUID) (completion.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, courseID)
	return completion.Snapshot{}, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]completion.Snapshot
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]completion.Snapshot{}}
}

func (c *fakeCache) Get(ctx context.Context, studentID, courseID uuid.UUID) (*completion.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[redis.SnapshotKey(studentID, courseID)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (c *fakeCache) Set(ctx context.Context, studentID, courseID uuid.UUID, snap completion.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[redis.SnapshotKey(studentID, courseID)] = snap
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, studentID, courseID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, redis.SnapshotKey(studentID, courseID))
	c.invalidated++
	return nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []redis.ProgressEvent
}

func (b *fakeBus) Publish(ctx context.Context, ev redis.ProgressEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *fakeBus) StartForwarder(ctx context.Context, onMsg func(ev redis.ProgressEvent)) error {
	return nil
}

func (b *fakeBus) Close() error { return nil }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dbcFor(e *testEnv) dbctx.Context {
	return dbctx.Context{Ctx: e.ctx}
}

func (e *testEnv) now() time.Time {
	return time.Now().UTC()
}
