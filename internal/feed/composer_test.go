package feed

import (
	"context"
	"testing"
	"time"

	"gator-forum/internal/database"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *database.MemoryStore
	feeds *Composer
	base  time.Time
}

func newFixture() *fixture {
	db := database.NewMemoryStore()
	return &fixture{db: db, feeds: NewComposer(db), base: time.Now().Add(-time.Hour)}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, _, err := f.db.ResolveUser(context.Background(),
		models.NewUserFromIdentity(models.ExternalIdentity{ID: "ext-" + name, Username: name}, time.Now()))
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, sub uuid.UUID, minute int, comments int) *models.Post {
	t.Helper()
	at := f.base.Add(time.Duration(minute) * time.Minute)
	p := &models.Post{
		ID:           uuid.New(),
		Title:        "post by " + author.Username,
		Content:      "hello",
		PostType:     models.TextPost,
		AuthorID:     author.ID,
		SubredditID:  sub,
		CommentCount: comments,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	require.NoError(t, f.db.CreatePost(context.Background(), p))
	return p
}

func ids(views []*models.PostView) []uuid.UUID {
	out := make([]uuid.UUID, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func TestHomeWithoutFollowsMatchesAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	sub := uuid.New()
	f.post(t, alice, sub, 1, 0)
	f.post(t, bob, sub, 2, 0)

	home, err := f.feeds.Feed(ctx, Request{Kind: Home, Viewer: alice})
	require.NoError(t, err)
	all, err := f.feeds.Feed(ctx, Request{Kind: All})
	require.NoError(t, err)
	assert.Equal(t, ids(all), ids(home))
	assert.Len(t, home, 2)
}

func TestHomeShowsFollowedAuthorsNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	sub := uuid.New()
	older := f.post(t, bob, sub, 1, 0)
	f.post(t, carol, sub, 2, 0)
	newer := f.post(t, bob, sub, 3, 0)

	require.NoError(t, f.db.FollowUser(ctx, alice.ID, bob.ID))
	alice, _ = f.db.GetUser(ctx, alice.ID)

	home, err := f.feeds.Feed(ctx, Request{Kind: Following, Viewer: alice})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer.ID, older.ID}, ids(home))
}

func TestHomeFallsBackWhenFollowedAuthorsHaveNoPosts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	only := f.post(t, carol, uuid.New(), 1, 0)

	require.NoError(t, f.db.FollowUser(ctx, alice.ID, bob.ID))
	alice, _ = f.db.GetUser(ctx, alice.ID)

	home, err := f.feeds.Feed(ctx, Request{Kind: Home, Viewer: alice})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{only.ID}, ids(home))
}

func TestPopularOrdersByCommentCount(t *testing.T) {
	f := newFixture()
	alice := f.user(t, "alice")
	sub := uuid.New()
	quiet := f.post(t, alice, sub, 3, 0)
	busy := f.post(t, alice, sub, 1, 9)
	tiedOld := f.post(t, alice, sub, 0, 4)
	tiedNew := f.post(t, alice, sub, 2, 4)

	popular, err := f.feeds.Feed(context.Background(), Request{Kind: Popular})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{busy.ID, tiedNew.ID, tiedOld.ID, quiet.ID}, ids(popular))
}

func TestCommunityFeedFilters(t *testing.T) {
	f := newFixture()
	alice := f.user(t, "alice")
	golang, rust := uuid.New(), uuid.New()
	mine := f.post(t, alice, golang, 1, 0)
	f.post(t, alice, rust, 2, 0)

	feed, err := f.feeds.Feed(context.Background(), Request{Kind: All, SubredditID: golang})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine.ID}, ids(feed))
}

func TestFeedDecoratesViewerVotes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.post(t, alice, uuid.New(), 1, 0)
	_, err := f.db.ApplyVote(ctx, models.PostRef(p.ID), bob.ID, models.StateNone, models.StateDown)
	require.NoError(t, err)

	asBob, err := f.feeds.Feed(ctx, Request{Kind: All, Viewer: bob})
	require.NoError(t, err)
	assert.Equal(t, models.StateDown, asBob[0].VoteStatus)
	assert.Equal(t, -1, asBob[0].Score)

	anonymous, err := f.feeds.Feed(ctx, Request{Kind: All})
	require.NoError(t, err)
	assert.Equal(t, models.StateNone, anonymous[0].VoteStatus)
}

func TestUnknownFeedKind(t *testing.T) {
	_, ok := ParseKind("best")
	assert.False(t, ok)
	kind, ok := ParseKind("HOME")
	assert.True(t, ok)
	assert.Equal(t, Home, kind)

	_, err := newFixture().feeds.Feed(context.Background(), Request{Kind: "best"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestBuildCommentTree(t *testing.T) {
	base := time.Now()
	post := uuid.New()
	viewer := uuid.New()
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	rootOld := &models.Comment{ID: uuid.New(), PostID: post, CreatedAt: at(0), Upvotes: []uuid.UUID{viewer}}
	rootNew := &models.Comment{ID: uuid.New(), PostID: post, CreatedAt: at(5)}
	replyLate := &models.Comment{ID: uuid.New(), PostID: post, ParentCommentID: &rootOld.ID, CreatedAt: at(4)}
	replyEarly := &models.Comment{ID: uuid.New(), PostID: post, ParentCommentID: &rootOld.ID, CreatedAt: at(1)}
	nested := &models.Comment{ID: uuid.New(), PostID: post, ParentCommentID: &replyEarly.ID, CreatedAt: at(2)}
	missing := uuid.New()
	orphan := &models.Comment{ID: uuid.New(), PostID: post, ParentCommentID: &missing, CreatedAt: at(3)}

	tree := BuildCommentTree([]*models.Comment{rootOld, replyEarly, nested, orphan, replyLate, rootNew}, viewer)

	require.Len(t, tree, 3)
	assert.Equal(t, rootNew.ID, tree[0].ID)
	assert.Equal(t, orphan.ID, tree[1].ID)
	assert.Equal(t, rootOld.ID, tree[2].ID)
	assert.Equal(t, models.StateUp, tree[2].VoteStatus)
	assert.Equal(t, 1, tree[2].Score)

	replies := tree[2].Replies
	require.Len(t, replies, 2)
	assert.Equal(t, replyEarly.ID, replies[0].ID)
	assert.Equal(t, replyLate.ID, replies[1].ID)
	require.Len(t, replies[0].Replies, 1)
	assert.Equal(t, nested.ID, replies[0].Replies[0].ID)
	assert.NotNil(t, tree[0].Replies)
}

func TestSearch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.user(t, "alice")
	require.NoError(t, f.db.CreateSubreddit(ctx, &models.Subreddit{ID: uuid.New(), Name: "golang", Description: "Gophers"}))
	p := f.post(t, alice, uuid.New(), 1, 0)

	result, err := f.feeds.Search(ctx, "GOPHER", uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, result.Subreddits, 1)
	assert.Nil(t, result.Subreddits[0].MemberCount)
	assert.Empty(t, result.Posts)

	result, err = f.feeds.Search(ctx, "by alice", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, ids(result.Posts))

	result, err = f.feeds.Search(ctx, "   ", uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, result.Posts)
	assert.Empty(t, result.Subreddits)
}

func TestProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	f.post(t, alice, uuid.New(), 1, 0)
	require.NoError(t, f.db.FollowUser(ctx, bob.ID, alice.ID))

	profile, err := f.feeds.Profile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.True(t, profile.IsFollowing)
	assert.Len(t, profile.RecentPosts, 1)
	assert.Empty(t, profile.User.Email)

	own, err := f.feeds.Profile(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, own.User.Email)

	_, err = f.feeds.Profile(ctx, "nobody", uuid.Nil)
	assert.True(t, utils.IsNotFound(err))
}
