package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/middleware"

	"github.com/gin-gonic/gin"
)

type usernameURI struct {
	Username string `uri:"username" binding:"required,max=64"`
}

// Me handles GET /api/users/me. The user was resolved, and created on first
// sight, by the authentication middleware.
func (s *Server) Me(c *gin.Context) {
	api.OK(c, middleware.CurrentUser(c))
}

// GetProfile handles GET /api/users/:username.
func (s *Server) GetProfile(c *gin.Context) {
	var uri usernameURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	result, ok := s.ask(c, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{Username: uri.Username, ViewerID: viewerID(c)})
	if !ok {
		return
	}
	api.OK(c, result)
}

func (s *Server) FollowUser(c *gin.Context) {
	s.follow(c, true)
}

func (s *Server) UnfollowUser(c *gin.Context) {
	s.follow(c, false)
}

func (s *Server) follow(c *gin.Context, follow bool) {
	var uri usernameURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err)
		return
	}
	followerID := middleware.CurrentUser(c).ID

	var msg interface{} = &actors.UnfollowUserMsg{FollowerID: followerID, Username: uri.Username}
	if follow {
		msg = &actors.FollowUserMsg{FollowerID: followerID, Username: uri.Username}
	}
	result, ok := s.ask(c, s.Engine.GetUserActor(), msg)
	if !ok {
		return
	}
	api.OK(c, result)
}
