package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gator-forum/internal/cache"
	"gator-forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const popularBody = `{"data":{"children":[
 {"data":{"display_name":"GoLang","title":"The Go Programming Language","subscribers":250000,
  "community_icon":"https://styles.example/icon.png?width=256&amp;s=abc","icon_img":"",
  "public_description":"Ask questions and post articles about Go.","url":"/r/golang/"}},
 {"data":{"display_name":"rust","title":"Rust","subscribers":300000,
  "community_icon":"","icon_img":"https://img.example/rust.png","public_description":"","url":"/r/rust/"}}
]}}`

const feedBody = `{"data":{"children":[
 {"data":{"id":"abc123","title":"New GPU launched","score":1200,"num_comments":340,"created_utc":1700000000,
  "subreddit":"gadgets","author":"someone","permalink":"/r/gadgets/comments/abc123/new_gpu/",
  "url":"https://www.reddit.com/r/gadgets/comments/abc123/","url_overridden_by_dest":"https://news.example/gpu",
  "thumbnail":"https://thumbs.example/gpu.jpg","is_video":false}},
 {"data":{"id":"def456","title":"Self post","score":5,"num_comments":1,"created_utc":1700000100,
  "subreddit":"programming","author":"other","permalink":"/r/programming/comments/def456/self/",
  "url":"https://www.reddit.com/r/programming/comments/def456/","thumbnail":"self","is_video":true}}
]}}`

type upstream struct {
	server  *httptest.Server
	hits    atomic.Int32
	status  atomic.Int32
	mu      sync.Mutex
	lastURL string
	lastUA  string
	delay   time.Duration
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{}
	u.status.Store(http.StatusOK)
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.mu.Lock()
		u.lastURL = r.URL.String()
		u.lastUA = r.Header.Get("User-Agent")
		u.mu.Unlock()
		time.Sleep(u.delay)

		if status := int(u.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if r.URL.Path == "/subreddits/popular.json" {
			fmt.Fprint(w, popularBody)
			return
		}
		fmt.Fprint(w, feedBody)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func newTestService(u *upstream) *Service {
	client := NewClient(ClientConfig{
		BaseURL:       u.server.URL + "/",
		UserAgent:     "gator-forum-test/1.0",
		RatePerSecond: 1000,
		Burst:         100,
	})
	return NewService(client, cache.NewMemoryCache(), time.Minute, utils.NewMetricsCollector(), zap.NewNop())
}

func TestPopularNormalizesAndCaches(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(u)

	result := svc.Popular(context.Background())
	require.False(t, result.Fallback)
	require.Len(t, result.Items, 2)

	golang := result.Items[0]
	assert.Equal(t, "golang", golang.Name)
	assert.Equal(t, "https://styles.example/icon.png", golang.Icon)
	assert.Equal(t, "https://reddit.com/r/golang/", golang.URL)
	assert.Equal(t, int64(250000), golang.Subscribers)
	assert.Equal(t, "https://img.example/rust.png", result.Items[1].Icon)

	assert.Equal(t, "/subreddits/popular.json?limit=20", u.lastURL)
	assert.Equal(t, "gator-forum-test/1.0", u.lastUA)

	svc.Popular(context.Background())
	assert.Equal(t, int32(1), u.hits.Load())
}

func TestPopularRateLimitedServesFallback(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusTooManyRequests)
	svc := newTestService(u)

	result := svc.Popular(context.Background())
	assert.True(t, result.Fallback)
	require.Len(t, result.Items, 5)

	names := make([]string, 0, 5)
	for _, item := range result.Items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"askreddit", "funny", "gaming", "pics", "science"}, names)

	// fallback is not cached: a recovered upstream is read on the next call
	u.status.Store(http.StatusOK)
	result = svc.Popular(context.Background())
	assert.False(t, result.Fallback)
	assert.Equal(t, int32(2), u.hits.Load())
}

func TestPopularUpstreamErrorServesFallback(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusBadGateway)

	result := newTestService(u).Popular(context.Background())
	assert.True(t, result.Fallback)
	assert.Len(t, result.Items, 5)
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	u := newUpstream(t)
	u.delay = 50 * time.Millisecond
	svc := newTestService(u)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, svc.Popular(context.Background()).Fallback)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), u.hits.Load())
}

func TestTopicFeed(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(u)

	feed, err := svc.TopicFeed(context.Background(), "technology", FeedOptions{Sort: SortTop, Range: RangeWeek, Limit: 10})
	require.NoError(t, err)
	assert.False(t, feed.Fallback)
	assert.Equal(t, "/r/technology+Futurology+gadgets+programming/top.json?limit=10&raw_json=1&t=week", u.lastURL)
	require.Len(t, feed.Posts, 2)

	first := feed.Posts[0]
	assert.Equal(t, "https://reddit.com/r/gadgets/comments/abc123/new_gpu/", first.Permalink)
	assert.Equal(t, "https://news.example/gpu", first.OutboundURL)
	assert.Equal(t, "https://thumbs.example/gpu.jpg", first.Thumbnail)
	assert.Equal(t, int64(340), first.Comments)

	second := feed.Posts[1]
	assert.Empty(t, second.Thumbnail)
	assert.Equal(t, "https://www.reddit.com/r/programming/comments/def456/", second.OutboundURL)
	assert.True(t, second.IsVideo)
}

func TestTopicFeedDefaultsOmitRange(t *testing.T) {
	u := newUpstream(t)
	feed, err := newTestService(u).TopicFeed(context.Background(), "food", FeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, SortHot, feed.Sort)
	assert.Empty(t, feed.Range)
	assert.Equal(t, "/r/food+Cooking+AskCulinary/hot.json?limit=25&raw_json=1", u.lastURL)
}

func TestTopicFeedErrors(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(u)

	_, err := svc.TopicFeed(context.Background(), "knitting", FeedOptions{})
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	_, err = svc.TopicFeed(context.Background(), "books", FeedOptions{Sort: "best"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.TopicFeed(context.Background(), "books", FeedOptions{Sort: SortTop, Range: "decade"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
	assert.Zero(t, u.hits.Load())
}

func TestTopicFeedRateLimited(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusTooManyRequests)

	feed, err := newTestService(u).TopicFeed(context.Background(), "games", FeedOptions{})
	require.NoError(t, err)
	assert.True(t, feed.Fallback)
	assert.NotNil(t, feed.Posts)
	assert.Empty(t, feed.Posts)
}

func TestWarmPopular(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(u)

	require.NoError(t, svc.WarmPopular(context.Background()))
	svc.Popular(context.Background())
	assert.Equal(t, int32(1), u.hits.Load())

	u.status.Store(http.StatusTooManyRequests)
	err := svc.WarmPopular(context.Background())
	assert.True(t, utils.IsErrorCode(err, utils.ErrTooManyRequests))
}

func TestTopics(t *testing.T) {
	all := Topics()
	assert.Len(t, all, 9)
	topic, ok := LookupTopic("games")
	require.True(t, ok)
	assert.Contains(t, topic.Subreddits, "PlayStation")
}
