package actors

import (
	"testing"

	"gator-forum/internal/database"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostKeepsSelectedBody(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	sub := h.subreddit("golang", alice)

	view, ok := h.ask(h.posts, &CreatePostMsg{
		Title:       "  Look  ",
		Content:     "ignored",
		LinkURL:     "https://go.dev",
		PostType:    models.LinkPost,
		AuthorID:    alice.ID,
		SubredditID: sub.ID,
	}).(*models.PostView)
	require.True(t, ok)
	assert.Equal(t, "Look", view.Title)
	assert.Equal(t, "https://go.dev", view.LinkURL)
	assert.Empty(t, view.Content)
	assert.Equal(t, "golang", view.SubredditName)
	assert.Equal(t, "alice", view.AuthorUsername)
	assert.Len(t, h.events.OfType(events.PostCreated), 1)

	image, ok := h.ask(h.posts, &CreatePostMsg{
		Title:       "Gopher",
		Content:     "caption",
		ImageURL:    "https://go.dev/gopher.png",
		LinkURL:     "https://go.dev",
		PostType:    models.ImagePost,
		AuthorID:    alice.ID,
		SubredditID: sub.ID,
	}).(*models.PostView)
	require.True(t, ok)
	assert.Equal(t, "https://go.dev/gopher.png", image.ImageURL)
	assert.Empty(t, image.Content)
	assert.Empty(t, image.LinkURL)
}

func TestCreatePostValidation(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	sub := h.subreddit("golang", alice)

	cases := map[string]*CreatePostMsg{
		"empty title":     {Title: " ", Content: "x", PostType: models.TextPost, AuthorID: alice.ID, SubredditID: sub.ID},
		"missing content": {Title: "t", PostType: models.TextPost, AuthorID: alice.ID, SubredditID: sub.ID},
		"bad image url":   {Title: "t", ImageURL: "ftp://x", PostType: models.ImagePost, AuthorID: alice.ID, SubredditID: sub.ID},
		"unknown type":    {Title: "t", Content: "x", PostType: "poll", AuthorID: alice.ID, SubredditID: sub.ID},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			appErr := h.askErr(h.posts, msg)
			assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
		})
	}

	appErr := h.askErr(h.posts, &CreatePostMsg{Title: "t", Content: "x", PostType: models.TextPost, AuthorID: alice.ID, SubredditID: uuid.New()})
	assert.True(t, utils.IsNotFound(appErr))
}

func TestDeletePostCascades(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	bob := h.user("bob")
	sub := h.subreddit("golang", alice)
	post := h.post(sub, alice, "doomed")
	h.comment(post.ID, bob, nil)
	h.ask(h.reports, &CreateReportMsg{ReporterID: bob.ID, Target: models.PostRef(post.ID), Reason: models.ReasonSpam})

	appErr := h.askErr(h.posts, &DeletePostMsg{PostID: post.ID, RequesterID: bob.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	summary, ok := h.ask(h.posts, &DeletePostMsg{PostID: post.ID, RequesterID: alice.ID}).(*DeleteSummary)
	require.True(t, ok)
	assert.Equal(t, &DeleteSummary{Posts: 1, Comments: 1, Reports: 1}, summary)

	counts := h.db.Counts()
	assert.Zero(t, counts[database.PostDoc])
	assert.Zero(t, counts[database.CommentDoc])
	assert.Zero(t, counts[database.ReportDoc])
	assert.Equal(t, 1, counts[database.SubredditDoc])
}

func TestGetFeedFallsBackToAll(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	bob := h.user("bob")
	sub := h.subreddit("golang", alice)
	h.post(sub, alice, "one")
	h.post(sub, alice, "two")

	posts, ok := h.ask(h.posts, &GetFeedMsg{Request: feed.Request{Kind: feed.Home, Viewer: bob}}).([]*models.PostView)
	require.True(t, ok)
	require.Len(t, posts, 2)
	assert.Equal(t, "two", posts[0].Title)
}
