package handlers

import (
	"gator-forum/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the middleware chain and every route.
func (s *Server) NewRouter() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(s.Logger),
		middleware.Metrics(s.Metrics),
		middleware.CORS(middleware.DefaultCORSConfig(s.AllowedOrigins)),
	)

	r.GET("/health", s.Health)
	if s.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	apiGroup := r.Group("/api", middleware.Authenticate(s.Verifier, s.ResolveUser, s.Logger))
	auth := middleware.RequireUser()

	users := apiGroup.Group("/users")
	users.GET("/me", auth, s.Me)
	users.GET("/:username", s.GetProfile)
	users.POST("/:username/follow", auth, s.FollowUser)
	users.DELETE("/:username/follow", auth, s.UnfollowUser)

	subs := apiGroup.Group("/subreddits")
	subs.GET("", s.ListSubreddits)
	subs.POST("", auth, s.SubredditAction)
	subs.GET("/:name", s.GetSubreddit)
	subs.POST("/:name/join", auth, s.JoinSubreddit)
	subs.POST("/:name/leave", auth, s.LeaveSubreddit)
	subs.GET("/:name/posts", s.SubredditPosts)
	subs.GET("/:name/reports", auth, s.SubredditReports)

	posts := apiGroup.Group("/posts")
	posts.POST("", auth, s.CreatePost)
	posts.GET("/:id", s.GetPost)
	posts.DELETE("/:id", auth, s.DeletePost)
	posts.POST("/:id/vote", auth, s.VotePost)
	posts.GET("/:id/comments", s.GetComments)
	posts.POST("/:id/comments", auth, s.CreateComment)

	comments := apiGroup.Group("/comments")
	comments.DELETE("/:id", auth, s.DeleteComment)
	comments.POST("/:id/vote", auth, s.VoteComment)

	reports := apiGroup.Group("/reports")
	reports.POST("", auth, s.CreateReport)
	reports.PATCH("/:id", auth, s.UpdateReport)

	apiGroup.GET("/feed/:kind", s.GetFeed)
	apiGroup.GET("/search", s.Search)
	apiGroup.GET("/topics", s.ListTopics)
	apiGroup.GET("/topics/:slug", s.TopicFeed)
	apiGroup.GET("/reddit/popular", s.PopularSubreddits)

	return r
}
