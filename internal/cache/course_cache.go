package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
)

const (
	activeCoursesKey    = "courses:active"
	activeGenerationKey = "courses:active:gen"
)

// NoGeneration is returned on a miss when the generation could not be read.
// SetActive ignores listings tagged with it.
const NoGeneration int64 = -1

var errListingStale = errors.New("course listing invalidated during read")

// CourseCache holds the public active-course listing. Failures are logged and
// reported as misses; the database stays authoritative.
//
// Every invalidation bumps a generation. A miss returns the generation seen
// before the database read, and SetActive stores the listing only if no
// invalidation happened since, so a read racing a write is never cached.
type CourseCache interface {
	GetActive(ctx context.Context) (courses []domain.Course, generation int64, ok bool)
	SetActive(ctx context.Context, generation int64, courses []domain.Course)
	Invalidate(ctx context.Context)
}

type cachedCourse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Code          string    `json:"code"`
	Capacity      int       `json:"capacity"`
	IsActive      bool      `json:"is_active"`
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type redisCourseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCourseCache returns a Redis-backed cache, or a no-op cache when client is nil
// or ttl is not positive.
func NewCourseCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) CourseCache {
	if client == nil || ttl <= 0 {
		return noopCourseCache{}
	}
	return &redisCourseCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisCourseCache) GetActive(ctx context.Context) ([]domain.Course, int64, bool) {
	var listCmd, genCmd *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		listCmd = p.Get(ctx, activeCoursesKey)
		genCmd = p.Get(ctx, activeGenerationKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("course cache read failed", zap.Error(err))
		return nil, NoGeneration, false
	}

	generation, err := genCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("course cache generation unreadable", zap.Error(err))
		return nil, NoGeneration, false
	}

	raw, err := listCmd.Bytes()
	if err != nil {
		return nil, generation, false
	}
	courses, err := decodeCourses(raw)
	if err != nil {
		c.logger.Warn("course cache entry corrupt", zap.Error(err))
		return nil, generation, false
	}
	return courses, generation, true
}

func (c *redisCourseCache) SetActive(ctx context.Context, generation int64, courses []domain.Course) {
	if generation == NoGeneration {
		return
	}
	raw, err := encodeCourses(courses)
	if err != nil {
		c.logger.Warn("course cache encode failed", zap.Error(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, activeGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errListingStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, activeCoursesKey, raw, c.ttl)
			return nil
		})
		return err
	}, activeGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errListingStale), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("course listing changed during read; not cached")
	default:
		c.logger.Warn("course cache write failed", zap.Error(err))
	}
}

func (c *redisCourseCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, activeGenerationKey)
		p.Del(ctx, activeCoursesKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("course cache invalidation failed", zap.Error(err))
	}
}

type noopCourseCache struct{}

func (noopCourseCache) GetActive(context.Context) ([]domain.Course, int64, bool) {
	return nil, NoGeneration, false
}
func (noopCourseCache) SetActive(context.Context, int64, []domain.Course) {}
func (noopCourseCache) Invalidate(context.Context) {}

// RegisterInvalidation drops the cached listing whenever course occupancy or
// course attributes change.
func RegisterInvalidation(dispatcher events.Dispatcher, cache CourseCache) {
	invalidate := func(ctx context.Context, _ events.Event) error {
		cache.Invalidate(ctx)
		return nil
	}
	dispatcher.Subscribe(events.EventCourseChanged, invalidate)
	dispatcher.Subscribe(events.EventEnrollmentCreated, invalidate)
	dispatcher.Subscribe(events.EventEnrollmentRemoved, invalidate)
}

func encodeCourses(courses []domain.Course) ([]byte, error) {
	items := make([]cachedCourse, 0, len(courses))
	for _, c := range courses {
		items = append(items, cachedCourse{
			ID:            c.ID,
			Title:         c.Title,
			Code:          c.Code,
			Capacity:      c.Capacity,
			IsActive:      c.IsActive,
			EnrolledCount: c.EnrolledCount,
			CreatedAt:     c.CreatedAt,
			UpdatedAt:     c.UpdatedAt,
		})
	}
	return json.Marshal(items)
}

func decodeCourses(raw []byte) ([]domain.Course, error) {
	var items []cachedCourse
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	courses := make([]domain.Course, 0, len(items))
	for _, it := range items {
		courses = append(courses, domain.Course{
			ID:            it.ID,
			Title:         it.Title,
			Code:          it.Code,
			Capacity:      it.Capacity,
			IsActive:      it.IsActive,
			EnrolledCount: it.EnrolledCount,
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
		})
	}
	return courses, nil
}
