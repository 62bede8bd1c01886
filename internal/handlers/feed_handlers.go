package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/feed"
	"gator-forum/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type feedQuery struct {
	pageQuery
	Subreddit string `form:"subreddit" binding:"omitempty,community"`
}

// GetFeed handles GET /api/feed/:kind. Home and following read as the all
// feed for anonymous callers.
func (s *Server) GetFeed(c *gin.Context) {
	kind, ok := feed.ParseKind(c.Param("kind"))
	if !ok {
		api.BadRequest(c, "feed must be home, following, popular or all")
		return
	}
	var query feedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	subredditID := uuid.Nil
	if query.Subreddit != "" {
		sub, ok := s.lookupSubreddit(c, query.Subreddit)
		if !ok {
			return
		}
		subredditID = sub.ID
	}

	result, ok := s.ask(c, s.Engine.GetPostActor(), &actors.GetFeedMsg{Request: feed.Request{
		Kind:        kind,
		Viewer:      middleware.CurrentUser(c),
		SubredditID: subredditID,
		Page:        query.page(),
	}})
	if !ok {
		return
	}
	api.OK(c, result)
}

type searchQuery struct {
	Q string `form:"q" binding:"max=200"`
}

// Search handles GET /api/search. Reads go straight to the composer since
// they touch no mutable actor state.
func (s *Server) Search(c *gin.Context) {
	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	result, err := s.Feeds.Search(c.Request.Context(), query.Q, viewerID(c))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, result)
}
