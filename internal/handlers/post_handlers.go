package handlers

import (
	"gator-forum/internal/api"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/middleware"
	"gator-forum/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createPostRequest struct {
	SubredditID string          `json:"subredditId" binding:"required,uuid"`
	Title       string          `json:"title" binding:"required,max=300"`
	PostType    models.PostType `json:"postType" binding:"required,oneof=text image link"`
	Content     string          `json:"content" binding:"max=40000"`
	ImageURL    string          `json:"imageUrl" binding:"omitempty,url"`
	LinkURL     string          `json:"linkUrl" binding:"omitempty,url"`
}

type voteRequest struct {
	VoteType models.VoteDirection `json:"voteType" binding:"required,oneof=up down"`
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, ok := s.ask(c, s.Engine.GetPostActor(), &actors.CreatePostMsg{
		Title:       req.Title,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		LinkURL:     req.LinkURL,
		PostType:    req.PostType,
		AuthorID:    middleware.CurrentUser(c).ID,
		SubredditID: uuid.MustParse(req.SubredditID),
	})
	if !ok {
		return
	}
	api.Created(c, result)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, ok := s.ask(c, s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID, ViewerID: viewerID(c)})
	if !ok {
		return
	}
	api.OK(c, result)
}

// DeletePost handles DELETE /api/posts/:id. Only the author may delete.
func (s *Server) DeletePost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, ok := s.ask(c, s.Engine.GetPostActor(), &actors.DeletePostMsg{
		PostID:      postID,
		RequesterID: middleware.CurrentUser(c).ID,
	})
	if !ok {
		return
	}
	api.OK(c, result)
}

func (s *Server) VotePost(c *gin.Context) {
	s.vote(c, models.PostContent)
}

func (s *Server) VoteComment(c *gin.Context) {
	s.vote(c, models.CommentContent)
}

// vote routes the cast to the shard that owns the target.
func (s *Server) vote(c *gin.Context, kind models.ContentKind) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	target := models.ContentRef{Kind: kind, ID: id}
	result, ok := s.ask(c, s.Engine.GetVoteActor(target), &actors.CastVoteMsg{
		VoterID:   middleware.CurrentUser(c).ID,
		Target:    target,
		Direction: req.VoteType,
	})
	if !ok {
		return
	}
	api.OK(c, result)
}
