package actors

import (
	"testing"

	"gator-forum/internal/database"
	"gator-forum/internal/events"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubredditNormalizesName(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")

	sub := h.subreddit("Test1", alice)
	assert.Equal(t, "test1", sub.Name)
	assert.Equal(t, "Test1", sub.DisplayName)
	assert.True(t, sub.IsMember(alice.ID))

	appErr := h.askErr(h.subs, &CreateSubredditMsg{Name: "test1", CreatorID: alice.ID})
	assert.Equal(t, utils.ErrSubredditExists, appErr.Code)

	appErr = h.askErr(h.subs, &CreateSubredditMsg{Name: "no spaces allowed", CreatorID: alice.ID})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	appErr = h.askErr(h.subs, &CreateSubredditMsg{Name: "ab", CreatorID: alice.ID})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestJoinAndLeaveSubreddit(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	bob := h.user("bob")
	h.subreddit("golang", alice)

	details, ok := h.ask(h.subs, &JoinSubredditMsg{Name: "GoLang", UserID: bob.ID}).(*models.SubredditDetails)
	require.True(t, ok)
	assert.True(t, details.IsMember)
	assert.False(t, details.CanDelete)
	assert.Equal(t, 2, details.MemberCount)

	appErr := h.askErr(h.subs, &JoinSubredditMsg{Name: "golang", UserID: bob.ID})
	assert.Equal(t, utils.ErrAlreadySubredditMember, appErr.Code)

	details, ok = h.ask(h.subs, &LeaveSubredditMsg{Name: "golang", UserID: bob.ID}).(*models.SubredditDetails)
	require.True(t, ok)
	assert.False(t, details.IsMember)
	assert.Equal(t, 1, details.MemberCount)

	appErr = h.askErr(h.subs, &LeaveSubredditMsg{Name: "golang", UserID: bob.ID})
	assert.Equal(t, utils.ErrNotSubredditMember, appErr.Code)

	appErr = h.askErr(h.subs, &JoinSubredditMsg{Name: "missing", UserID: bob.ID})
	assert.True(t, utils.IsNotFound(appErr))

	assert.Len(t, h.events.OfType(events.MemberJoined), 1)
	assert.Len(t, h.events.OfType(events.MemberLeft), 1)
}

func TestListSubredditsViewerFields(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	h.subreddit("zeta", alice)
	h.subreddit("alpha", alice)

	anonymous, ok := h.ask(h.subs, &ListSubredditsMsg{}).([]models.SubredditSummary)
	require.True(t, ok)
	require.Len(t, anonymous, 2)
	assert.Equal(t, "alpha", anonymous[0].Name)
	assert.Nil(t, anonymous[0].MemberCount)

	viewed, ok := h.ask(h.subs, &ListSubredditsMsg{ViewerID: alice.ID}).([]models.SubredditSummary)
	require.True(t, ok)
	require.NotNil(t, viewed[0].CanDelete)
	assert.True(t, *viewed[0].CanDelete)
	assert.Equal(t, 1, *viewed[0].MemberCount)
}

func TestDeleteSubredditCascades(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice")
	bob := h.user("bob")
	sub := h.subreddit("golang", alice)

	first := h.post(sub, alice, "first")
	second := h.post(sub, bob, "second")
	root := h.comment(first.ID, bob, nil)
	h.comment(first.ID, alice, &root.ID)
	h.comment(second.ID, alice, nil)
	h.ask(h.reports, &CreateReportMsg{ReporterID: bob.ID, Target: models.PostRef(first.ID), Reason: models.ReasonSpam})
	h.ask(h.reports, &CreateReportMsg{ReporterID: alice.ID, Target: models.CommentRef(root.ID), Reason: models.ReasonOther})

	other := h.subreddit("rust", bob)
	survivor := h.post(other, bob, "survivor")

	appErr := h.askErr(h.subs, &DeleteSubredditMsg{SubredditID: sub.ID, RequesterID: bob.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	summary, ok := h.ask(h.subs, &DeleteSubredditMsg{SubredditID: sub.ID, RequesterID: alice.ID}).(*DeleteSummary)
	require.True(t, ok)
	assert.Equal(t, &DeleteSummary{Subreddits: 1, Posts: 2, Comments: 3, Reports: 2}, summary)

	counts := h.db.Counts()
	assert.Equal(t, 1, counts[database.SubredditDoc])
	assert.Equal(t, 1, counts[database.PostDoc])
	assert.Zero(t, counts[database.CommentDoc])
	assert.Zero(t, counts[database.ReportDoc])

	_, ok = h.ask(h.posts, &GetPostMsg{PostID: survivor.ID}).(*models.PostView)
	assert.True(t, ok)

	appErr = h.askErr(h.subs, &GetSubredditMsg{Name: "golang"})
	assert.True(t, utils.IsNotFound(appErr))
	assert.Len(t, h.events.OfType(events.SubredditDeleted), 1)
}
