package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gator-forum/internal/cache"
	"gator-forum/internal/database"
	"gator-forum/internal/engine"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/middleware"
	"gator-forum/internal/models"
	"gator-forum/internal/reddit"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret"

type stubFetcher struct {
	popular []reddit.PopularSubreddit
	err     error
}

func (f *stubFetcher) PopularSubreddits(ctx context.Context) ([]reddit.PopularSubreddit, error) {
	return f.popular, f.err
}

func (f *stubFetcher) MultiFeed(ctx context.Context, subreddits []string, opts reddit.FeedOptions) ([]reddit.ListingPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []reddit.ListingPost{{ID: "abc", Title: "from " + subreddits[0]}}, nil
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	db      *database.MemoryStore
	fetcher *stubFetcher
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	logger := zap.NewNop()
	composer := feed.NewComposer(db)
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, &actors.Deps{
		DB:      db,
		Feeds:   composer,
		Events:  &events.Recorder{},
		Metrics: metrics,
		Logger:  logger,
		Timeout: time.Second,
	}, 2)
	t.Cleanup(eng.Stop)

	fetcher := &stubFetcher{popular: []reddit.PopularSubreddit{{Name: "golang", Title: "Go"}}}
	listings := reddit.NewService(fetcher, cache.NewMemoryCache(), time.Minute, metrics, logger)

	server := NewServer(system, eng, metrics, db, composer, listings,
		middleware.NewIdentityVerifier(testSecret, ""), logger)
	return &testServer{t: t, router: server.NewRouter(), db: db, fetcher: fetcher}
}

func (ts *testServer) token(externalID, username string) string {
	ts.t.Helper()
	token, err := middleware.IssueToken(testSecret, "", models.ExternalIdentity{ID: externalID, Username: username}, time.Hour)
	require.NoError(ts.t, err)
	return token
}

// do sends a request and returns the recorder; token may be empty.
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func parse(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type idName struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func TestCommunityLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token("ext_alice", "alice")
	bob := ts.token("ext_bob", "bob")

	var created idName
	w := ts.do(http.MethodPost, "/api/subreddits", alice, map[string]string{"action": "create", "name": "Test1", "description": "testing"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parse(t, w, &created)
	assert.Equal(t, "test1", created.Name)

	w = ts.do(http.MethodPost, "/api/subreddits", bob, map[string]string{"action": "create", "name": "test1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parse(t, w, nil)
	assert.False(t, env.Success)
	assert.Equal(t, utils.ErrSubredditExists, env.Code)
	assert.Equal(t, "A community with this name already exists", env.Error)

	w = ts.do(http.MethodPost, "/api/subreddits/test1/join", bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodPost, "/api/subreddits/test1/join", bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrAlreadySubredditMember, parse(t, w, nil).Code)

	var summaries []models.SubredditSummary
	w = ts.do(http.MethodGet, "/api/subreddits", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	parse(t, w, &summaries)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].IsMember)
	assert.True(t, *summaries[0].IsMember)
	assert.Equal(t, 2, *summaries[0].MemberCount)

	w = ts.do(http.MethodPost, "/api/subreddits", bob, map[string]string{
		"action": "delete", "subredditId": created.ID.String(), "requesterId": "ext_alice",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/api/subreddits", bob, map[string]string{"action": "delete", "subredditId": created.ID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only the creator can delete this community", parse(t, w, nil).Error)

	w = ts.do(http.MethodPost, "/api/subreddits", alice, map[string]string{
		"action": "delete", "subredditId": created.ID.String(), "requesterId": "ext_alice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, parse(t, w, nil).Success)

	w = ts.do(http.MethodGet, "/api/subreddits/test1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostVoteAndCommentFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token("ext_alice", "alice")
	bob := ts.token("ext_bob", "bob")

	var sub idName
	parse(t, ts.do(http.MethodPost, "/api/subreddits", alice, map[string]string{"action": "create", "name": "golang"}), &sub)

	var post idName
	w := ts.do(http.MethodPost, "/api/posts", alice, map[string]string{
		"subredditId": sub.ID.String(), "title": "Generics", "postType": "text", "content": "finally",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parse(t, w, &post)

	votePath := "/api/posts/" + post.ID.String() + "/vote"
	var vote models.VoteResult
	parse(t, ts.do(http.MethodPost, votePath, bob, map[string]string{"voteType": "up"}), &vote)
	assert.Equal(t, models.VoteCreated, vote.Action)
	assert.Equal(t, 1, vote.Score)

	parse(t, ts.do(http.MethodPost, votePath, bob, map[string]string{"voteType": "up"}), &vote)
	assert.Equal(t, models.VoteRemoved, vote.Action)
	assert.Equal(t, models.StateNone, vote.VoteStatus)

	parse(t, ts.do(http.MethodPost, votePath, bob, map[string]string{"voteType": "down"}), &vote)
	assert.Equal(t, models.VoteCreated, vote.Action)
	assert.Equal(t, -1, vote.Score)

	w = ts.do(http.MethodPost, votePath, bob, map[string]string{"voteType": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "voteType must be one of up, down", parse(t, w, nil).Error)

	var root idName
	w = ts.do(http.MethodPost, "/api/posts/"+post.ID.String()+"/comments", bob, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parse(t, w, &root)
	w = ts.do(http.MethodPost, "/api/posts/"+post.ID.String()+"/comments", alice, map[string]string{"text": "thanks", "parentId": root.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)

	var tree []*models.CommentNode
	parse(t, ts.do(http.MethodGet, "/api/posts/"+post.ID.String()+"/comments", "", nil), &tree)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "thanks", tree[0].Replies[0].Text)

	var feedPosts []models.PostView
	parse(t, ts.do(http.MethodGet, "/api/feed/popular", "", nil), &feedPosts)
	require.Len(t, feedPosts, 1)
	assert.Equal(t, 2, feedPosts[0].CommentCount)
	assert.Equal(t, -1, feedPosts[0].Score)

	w = ts.do(http.MethodDelete, "/api/posts/"+post.ID.String(), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(http.MethodDelete, "/api/posts/"+post.ID.String(), alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, ts.db.Counts()[database.CommentDoc])
}

func TestMutationsRequireIdentity(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/subreddits", "", map[string]string{"action": "create", "name": "golang"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/posts/"+uuid.NewString()+"/vote", "not-a-token", map[string]string{"voteType": "up"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, utils.ErrInvalidToken, parse(t, w, nil).Code)
}

func TestMeResolvesIdentityOnce(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token("user_2abcdefghijk", "")

	var first, second models.User
	parse(t, ts.do(http.MethodGet, "/api/users/me", token, nil), &first)
	parse(t, ts.do(http.MethodGet, "/api/users/me", token, nil), &second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "user_user_2ab", first.Username)
	assert.Equal(t, 1, ts.db.Counts()[database.UserDoc])
}

func TestFollowAndProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token("ext_alice", "alice")
	bob := ts.token("ext_bob", "bob")
	ts.do(http.MethodGet, "/api/users/me", bob, nil)

	w := ts.do(http.MethodPost, "/api/users/bob/follow", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodPost, "/api/users/alice/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var profile models.UserProfile
	parse(t, ts.do(http.MethodGet, "/api/users/bob", alice, nil), &profile)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.True(t, profile.IsFollowing)
	assert.Empty(t, profile.User.Email)

	w = ts.do(http.MethodDelete, "/api/users/bob/follow", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodDelete, "/api/users/bob/follow", alice, nil)
	assert.Equal(t, utils.ErrNotFollowing, parse(t, w, nil).Code)
}

func TestReportsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	mod := ts.token("ext_mod", "mod")
	bob := ts.token("ext_bob", "bob")

	var sub, post, report idName
	parse(t, ts.do(http.MethodPost, "/api/subreddits", mod, map[string]string{"action": "create", "name": "golang"}), &sub)
	parse(t, ts.do(http.MethodPost, "/api/posts", bob, map[string]string{
		"subredditId": sub.ID.String(), "title": "buy now", "postType": "link", "linkUrl": "https://spam.example",
	}), &post)

	w := ts.do(http.MethodPost, "/api/reports", bob, map[string]string{"kind": "post", "id": post.ID.String(), "reason": "boring"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/reports", bob, map[string]string{"kind": "post", "id": post.ID.String(), "reason": "spam"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parse(t, w, &report)

	w = ts.do(http.MethodGet, "/api/subreddits/golang/reports", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var listed []models.Report
	parse(t, ts.do(http.MethodGet, "/api/subreddits/golang/reports?status=pending", mod, nil), &listed)
	require.Len(t, listed, 1)

	var updated models.Report
	w = ts.do(http.MethodPatch, "/api/reports/"+report.ID.String(), mod, map[string]string{"status": "resolved", "moderatorNotes": "removed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	parse(t, w, &updated)
	assert.Equal(t, models.ReportResolved, updated.Status)
}

func TestPopularFallsBackOnRateLimit(t *testing.T) {
	ts := newTestServer(t)

	var result reddit.PopularResult
	w := ts.do(http.MethodGet, "/api/reddit/popular", "", nil)
	parse(t, w, &result)
	assert.False(t, result.Fallback)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	ts2 := newTestServer(t)
	ts2.fetcher.err = utils.NewAppError(utils.ErrTooManyRequests, "rate limited", nil)
	w = ts2.do(http.MethodGet, "/api/reddit/popular", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parse(t, w, &result)
	assert.True(t, result.Fallback)
	assert.Len(t, result.Items, 5)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestTopicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var topics []reddit.Topic
	parse(t, ts.do(http.MethodGet, "/api/topics", "", nil), &topics)
	assert.Len(t, topics, 9)

	var topicFeed reddit.TopicFeed
	w := ts.do(http.MethodGet, "/api/topics/technology?sort=top&t=week", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parse(t, w, &topicFeed)
	assert.Equal(t, reddit.RangeWeek, topicFeed.Range)
	assert.Len(t, topicFeed.Posts, 1)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/topics/knitting", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/topics/technology?sort=best", "", nil).Code)
}

func TestFeedAndSearchValidation(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/feed/trending", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/feed/all?limit=-1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/feed/all?subreddit=missing", "", nil).Code)

	var result feed.SearchResult
	w := ts.do(http.MethodGet, "/api/search?q=", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parse(t, w, &result)
	assert.Empty(t, result.Posts)
	assert.Empty(t, result.Subreddits)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "forum_http_requests_total"))
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://forum.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://forum.example", w.Header().Get("Access-Control-Allow-Origin"))
}
