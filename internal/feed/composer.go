// Package feed assembles ordered, viewer-decorated post lists.
package feed

import (
	"context"
	"sort"
	"strings"

	"gator-forum/internal/database"
	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
)

// Kind names a feed variant.
type Kind string

const (
	Home      Kind = "home"
	Following Kind = "following"
	Popular   Kind = "popular"
	All       Kind = "all"
)

func ParseKind(raw string) (Kind, bool) {
	switch k := Kind(strings.ToLower(raw)); k {
	case Home, Following, Popular, All:
		return k, true
	}
	return "", false
}

const (
	searchLimit  = 5
	profilePosts = 10
)

// Request describes one feed read. Viewer is nil for anonymous callers and
// SubredditID is uuid.Nil for site-wide feeds.
type Request struct {
	Kind        Kind
	Viewer      *models.User
	SubredditID uuid.UUID
	Page        models.Page
}

func (r Request) viewerID() uuid.UUID {
	if r.Viewer == nil {
		return uuid.Nil
	}
	return r.Viewer.ID
}

// Composer reads from the store and decorates results for the viewer. Vote
// status comes from the vote arrays already loaded with each document.
type Composer struct {
	db database.DBAdapter
}

func NewComposer(db database.DBAdapter) *Composer {
	return &Composer{db: db}
}

// Feed returns the posts of one feed variant.
func (c *Composer) Feed(ctx context.Context, req Request) ([]*models.PostView, error) {
	switch req.Kind {
	case Home, Following:
		return c.home(ctx, req)
	case Popular:
		return c.list(ctx, req, database.PostQuery{SubredditID: req.SubredditID, Sort: database.SortMostCommented})
	case All, "":
		return c.list(ctx, req, database.PostQuery{SubredditID: req.SubredditID})
	default:
		return nil, utils.NewAppError(utils.ErrInvalidInput, "unknown feed "+string(req.Kind), nil)
	}
}

// home lists posts by followed authors, falling back to the all feed when the
// viewer follows nobody or the first page comes back empty.
func (c *Composer) home(ctx context.Context, req Request) ([]*models.PostView, error) {
	all := database.PostQuery{SubredditID: req.SubredditID}
	if req.Viewer == nil || len(req.Viewer.Following) == 0 {
		return c.list(ctx, req, all)
	}

	posts, err := c.list(ctx, req, database.PostQuery{
		SubredditID: req.SubredditID,
		AuthorIDs:   req.Viewer.Following,
	})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 && req.Page.Normalize().Offset == 0 {
		return c.list(ctx, req, all)
	}
	return posts, nil
}

func (c *Composer) list(ctx context.Context, req Request, query database.PostQuery) ([]*models.PostView, error) {
	query.Page = req.Page.Normalize()
	posts, err := c.db.ListPosts(ctx, query)
	if err != nil {
		return nil, err
	}
	return Decorate(posts, req.viewerID()), nil
}

// Decorate attaches score and the viewer's vote status to each post.
func Decorate(posts []*models.Post, viewer uuid.UUID) []*models.PostView {
	views := make([]*models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, models.NewPostView(p, viewer))
	}
	return views
}

// Post returns a single decorated post.
func (c *Composer) Post(ctx context.Context, postID, viewer uuid.UUID) (*models.PostView, error) {
	post, err := c.db.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.NewPostView(post, viewer), nil
}

// Comments returns the decorated comment tree of a post.
func (c *Composer) Comments(ctx context.Context, postID, viewer uuid.UUID) ([]*models.CommentNode, error) {
	if _, err := c.db.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := c.db.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(comments, viewer), nil
}

// BuildCommentTree nests comments under their parents. Roots are ordered
// newest first and replies oldest first. A comment whose parent is missing
// is treated as a root.
func BuildCommentTree(comments []*models.Comment, viewer uuid.UUID) []*models.CommentNode {
	nodes := make(map[uuid.UUID]*models.CommentNode, len(comments))
	for _, cm := range comments {
		votes := cm.Votes()
		node := &models.CommentNode{
			Comment: cm,
			Score:   votes.Score(),
			Replies: []*models.CommentNode{},
		}
		if viewer != uuid.Nil {
			node.VoteStatus = votes.StateOf(viewer)
		}
		nodes[cm.ID] = node
	}

	roots := make([]*models.CommentNode, 0)
	for _, cm := range comments {
		node := nodes[cm.ID]
		if cm.ParentCommentID != nil {
			if parent, ok := nodes[*cm.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	for _, node := range nodes {
		sortNodes(node.Replies, false)
	}
	sortNodes(roots, true)
	return roots
}

func sortNodes(nodes []*models.CommentNode, newestFirst bool) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].CreatedAt, nodes[j].CreatedAt
		if newestFirst {
			return a.After(b)
		}
		return a.Before(b)
	})
}

// SearchResult holds the matches of a site search.
type SearchResult struct {
	Posts      []*models.PostView        `json:"posts"`
	Subreddits []models.SubredditSummary `json:"subreddits"`
}

func (c *Composer) Search(ctx context.Context, term string, viewer uuid.UUID) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return &SearchResult{Posts: []*models.PostView{}, Subreddits: []models.SubredditSummary{}}, nil
	}

	posts, err := c.db.SearchPosts(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}
	subs, err := c.db.SearchSubreddits(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Posts:      Decorate(posts, viewer),
		Subreddits: make([]models.SubredditSummary, 0, len(subs)),
	}
	for _, sub := range subs {
		result.Subreddits = append(result.Subreddits, sub.Summarize(viewer))
	}
	return result, nil
}

// Profile returns the public view of a user with their most recent posts.
func (c *Composer) Profile(ctx context.Context, username string, viewer uuid.UUID) (*models.UserProfile, error) {
	user, err := c.db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := c.db.ListPosts(ctx, database.PostQuery{
		AuthorIDs: []uuid.UUID{user.ID},
		Page:      models.Page{Limit: profilePosts},
	})
	if err != nil {
		return nil, err
	}
	if viewer != user.ID {
		user.Email = ""
	}

	return &models.UserProfile{
		User:           user,
		FollowerCount:  len(user.Followers),
		FollowingCount: len(user.Following),
		IsFollowing:    viewer != uuid.Nil && models.ContainsID(user.Followers, viewer),
		RecentPosts:    Decorate(posts, viewer),
	}, nil
}
