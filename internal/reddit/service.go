package reddit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gator-forum/internal/cache"
	"gator-forum/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the upstream side of the service.
type Fetcher interface {
	PopularSubreddits(ctx context.Context) ([]PopularSubreddit, error)
	MultiFeed(ctx context.Context, subreddits []string, opts FeedOptions) ([]ListingPost, error)
}

// Service serves external listings through a short-lived cache. Concurrent
// misses for the same key share one upstream call, and any upstream failure
// degrades to a fallback result that is never cached.
type Service struct {
	fetcher Fetcher
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *utils.MetricsCollector
	logger  *zap.Logger
}

func NewService(fetcher Fetcher, c cache.Cache, ttl time.Duration, metrics *utils.MetricsCollector, logger *zap.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// cached returns the value under key, loading it with load on a miss.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if hit, err := cache.GetJSON[T](ctx, s.cache, key); err == nil {
		s.metrics.RecordCacheLookup(true)
		return *hit, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, key, value, s.ttl); err != nil {
			s.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Popular returns the popular external communities, or the static fallback
// list when the upstream cannot be read.
func (s *Service) Popular(ctx context.Context) *PopularResult {
	items, err := cached(ctx, s, cache.POPULAR_SUBREDDITS_KEY, s.fetcher.PopularSubreddits)
	if err != nil {
		s.logger.Warn("serving fallback popular subreddits",
			zap.Bool("rateLimited", utils.IsErrorCode(err, utils.ErrTooManyRequests)),
			zap.Error(err))
		return &PopularResult{Items: FallbackPopular(), Fallback: true}
	}
	return &PopularResult{Items: items}
}

// WarmPopular refreshes the cached popular listing.
func (s *Service) WarmPopular(ctx context.Context) error {
	items, err := s.fetcher.PopularSubreddits(ctx)
	if err != nil {
		return err
	}
	return cache.SetJSON(ctx, s.cache, cache.POPULAR_SUBREDDITS_KEY, items, s.ttl)
}

// TopicFeed returns the normalized multi-community listing for a topic.
// Unknown topics and invalid options are errors; upstream failures are not.
func (s *Service) TopicFeed(ctx context.Context, slug string, opts FeedOptions) (*TopicFeed, error) {
	topic, ok := LookupTopic(slug)
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Topic not found", nil)
	}
	opts = opts.Normalize()
	if !opts.Sort.Valid() {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "sort must be hot, new or top", nil)
	}
	if !opts.Range.Valid() {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "t must be hour, day, week, month, year or all", nil)
	}

	feed := &TopicFeed{Topic: topic, Sort: opts.Sort}
	if opts.Sort == SortTop {
		feed.Range = opts.Range
	}

	key := cache.TopicFeedKey(fmt.Sprintf("%s:%s:%s:%d", slug, opts.Sort, feed.Range, opts.Limit))
	posts, err := cached(ctx, s, key, func(ctx context.Context) ([]ListingPost, error) {
		return s.fetcher.MultiFeed(ctx, topic.Subreddits, opts)
	})
	if err != nil {
		s.logger.Warn("serving empty topic feed",
			zap.String("topic", slug),
			zap.Bool("rateLimited", utils.IsErrorCode(err, utils.ErrTooManyRequests)),
			zap.Error(err))
		feed.Posts = []ListingPost{}
		feed.Fallback = true
		return feed, nil
	}
	feed.Posts = posts
	return feed, nil
}
