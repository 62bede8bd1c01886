package handlers

import (
	"context"
	"net/http"
	"time"

	"gator-forum/internal/api"
	"gator-forum/internal/reddit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const popularCacheControl = "public, max-age=300"

type topicQuery struct {
	Sort  string `form:"sort"`
	Range string `form:"t"`
	Limit int    `form:"limit" binding:"min=0"`
}

// PopularSubreddits handles GET /api/reddit/popular. It never fails: upstream
// errors are answered with the fallback list, which is not cacheable.
func (s *Server) PopularSubreddits(c *gin.Context) {
	result := s.Reddit.Popular(c.Request.Context())
	if result.Fallback {
		c.Header("Cache-Control", "no-store")
	} else {
		c.Header("Cache-Control", popularCacheControl)
	}
	api.OK(c, result)
}

// ListTopics handles GET /api/topics.
func (s *Server) ListTopics(c *gin.Context) {
	api.OK(c, reddit.Topics())
}

// TopicFeed handles GET /api/topics/:slug.
func (s *Server) TopicFeed(c *gin.Context) {
	var query topicQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	result, err := s.Reddit.TopicFeed(c.Request.Context(), c.Param("slug"), reddit.FeedOptions{
		Sort:  reddit.Sort(query.Sort),
		Range: reddit.TopRange(query.Range),
		Limit: query.Limit,
	})
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, result)
}

type healthStatus struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Actors string `json:"actors"`
	Uptime string `json:"uptime"`
}

// Health reports store reachability and actor liveness.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := healthStatus{Status: "ok", Store: "ok", Actors: "ok", Uptime: s.Metrics.Uptime().Round(time.Second).String()}
	if err := s.DB.Ping(ctx); err != nil {
		s.Logger.Warn("store health check failed", zap.Error(err))
		status.Status, status.Store = "degraded", "unreachable"
	}
	if !s.Engine.Healthy(time.Second) {
		status.Status, status.Actors = "degraded", "unresponsive"
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, api.Response{Success: code == http.StatusOK, Data: status})
}
