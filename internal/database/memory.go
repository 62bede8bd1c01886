package database

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gator-forum/internal/models"
	"gator-forum/internal/utils"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DBAdapter used for local runs and tests. It
// enforces the same uniqueness and error contract as MongoDB, and applies
// every multi-document mutation under a single lock.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*models.User
	subreddits map[uuid.UUID]*models.Subreddit
	posts      map[uuid.UUID]*models.Post
	comments   map[uuid.UUID]*models.Comment
	reports    map[uuid.UUID]*models.Report

	// failNext is returned once by the next store call that checks it.
	failNext error
}

var _ DBAdapter = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uuid.UUID]*models.User),
		subreddits: make(map[uuid.UUID]*models.Subreddit),
		posts:      make(map[uuid.UUID]*models.Post),
		comments:   make(map[uuid.UUID]*models.Comment),
		reports:    make(map[uuid.UUID]*models.Report),
	}
}

// FailNext makes the next store call return err.
func (s *MemoryStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// injected must be called with the lock held.
func (s *MemoryStore) injected() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Following = slices.Clone(u.Following)
	c.Followers = slices.Clone(u.Followers)
	return &c
}

func cloneSubreddit(sub *models.Subreddit) *models.Subreddit {
	c := *sub
	c.Members = slices.Clone(sub.Members)
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Upvotes = slices.Clone(p.Upvotes)
	c.Downvotes = slices.Clone(p.Downvotes)
	return &c
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	c.Upvotes = slices.Clone(cm.Upvotes)
	c.Downvotes = slices.Clone(cm.Downvotes)
	if cm.ParentCommentID != nil {
		parent := *cm.ParentCommentID
		c.ParentCommentID = &parent
	}
	return &c
}

func cloneReport(r *models.Report) *models.Report {
	c := *r
	return &c
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.injected()
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Users

func (s *MemoryStore) ResolveUser(ctx context.Context, candidate *models.User) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return nil, false, utils.NewDatabaseError("failed to resolve user", err)
	}

	for _, u := range s.users {
		if u.ExternalIdentityID == candidate.ExternalIdentityID {
			return cloneUser(u), false, nil
		}
	}
	stored := cloneUser(candidate)
	for n := 2; s.usernameTakenLocked(stored.Username); n++ {
		stored.Username = models.SuffixedUsername(candidate.Username, n)
	}
	s.users[stored.ID] = stored
	return cloneUser(stored), true, nil
}

// usernameTakenLocked must be called with the lock held.
func (s *MemoryStore) usernameTakenLocked(username string) bool {
	for _, u := range s.users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *MemoryStore) FollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	followee, ok := s.users[followeeID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if models.ContainsID(follower.Following, followeeID) {
		return utils.NewAppError(utils.ErrAlreadyFollowing, "You are already following this user", nil)
	}

	now := time.Now()
	follower.Following = models.AddID(follower.Following, followeeID)
	follower.UpdatedAt = now
	followee.Followers = models.AddID(followee.Followers, followerID)
	followee.UpdatedAt = now
	return nil
}

func (s *MemoryStore) UnfollowUser(ctx context.Context, followerID, followeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if !models.ContainsID(follower.Following, followeeID) {
		return utils.NewAppError(utils.ErrNotFollowing, "You are not following this user", nil)
	}

	now := time.Now()
	follower.Following = models.RemoveID(follower.Following, followeeID)
	follower.UpdatedAt = now
	if followee, ok := s.users[followeeID]; ok {
		followee.Followers = models.RemoveID(followee.Followers, followerID)
		followee.UpdatedAt = now
	}
	return nil
}

// Subreddits

func (s *MemoryStore) CreateSubreddit(ctx context.Context, sub *models.Subreddit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return utils.NewDatabaseError("failed to create subreddit", err)
	}
	for _, existing := range s.subreddits {
		if existing.Name == sub.Name {
			return utils.NewAppError(utils.ErrSubredditExists, "A community with this name already exists", nil)
		}
	}
	s.subreddits[sub.ID] = cloneSubreddit(sub)
	return nil
}

func (s *MemoryStore) GetSubredditByID(ctx context.Context, id uuid.UUID) (*models.Subreddit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subreddits[id]; ok {
		return cloneSubreddit(sub), nil
	}
	return nil, utils.NewSubredditNotFoundError()
}

func (s *MemoryStore) GetSubredditByName(ctx context.Context, name string) (*models.Subreddit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name = models.NormalizeSubredditName(name)
	for _, sub := range s.subreddits {
		if sub.Name == name {
			return cloneSubreddit(sub), nil
		}
	}
	return nil, utils.NewSubredditNotFoundError()
}

func (s *MemoryStore) ListSubreddits(ctx context.Context) ([]*models.Subreddit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Subreddit, 0, len(s.subreddits))
	for _, sub := range s.subreddits {
		out = append(out, cloneSubreddit(sub))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) SearchSubreddits(ctx context.Context, term string, limit int) ([]*models.Subreddit, error) {
	all, _ := s.ListSubreddits(ctx)
	out := make([]*models.Subreddit, 0)
	for _, sub := range all {
		if len(out) == limit {
			break
		}
		if containsFold(sub.Name, term) || containsFold(sub.Description, term) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subreddits[subredditID]
	if !ok {
		return utils.NewSubredditNotFoundError()
	}
	if sub.IsMember(userID) {
		return utils.NewAppError(utils.ErrAlreadySubredditMember, "You are already a member of this community", nil)
	}
	sub.Members = models.AddID(sub.Members, userID)
	sub.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RemoveSubredditMember(ctx context.Context, subredditID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subreddits[subredditID]
	if !ok {
		return utils.NewSubredditNotFoundError()
	}
	if !sub.IsMember(userID) {
		return utils.NewAppError(utils.ErrNotSubredditMember, "You are not a member of this community", nil)
	}
	sub.Members = models.RemoveID(sub.Members, userID)
	sub.UpdatedAt = time.Now()
	return nil
}

// Posts

func (s *MemoryStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return utils.NewDatabaseError("failed to create post", err)
	}
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
}

func newestFirst(a, b *models.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (s *MemoryStore) ListPosts(ctx context.Context, query PostQuery) ([]*models.Post, error) {
	s.mu.Lock()
	if err := s.injected(); err != nil {
		s.mu.Unlock()
		return nil, utils.NewDatabaseError("database query failed", err)
	}
	matched := make([]*models.Post, 0)
	for _, p := range s.posts {
		if query.SubredditID != uuid.Nil && p.SubredditID != query.SubredditID {
			continue
		}
		if query.AuthorIDs != nil && !models.ContainsID(query.AuthorIDs, p.AuthorID) {
			continue
		}
		matched = append(matched, clonePost(p))
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if query.Sort == SortMostCommented && a.CommentCount != b.CommentCount {
			return a.CommentCount > b.CommentCount
		}
		return newestFirst(a, b)
	})

	page := query.Page.Normalize()
	if page.Offset >= len(matched) {
		return []*models.Post{}, nil
	}
	end := min(page.Offset+page.Limit, len(matched))
	return matched[page.Offset:end], nil
}

func (s *MemoryStore) SearchPosts(ctx context.Context, term string, limit int) ([]*models.Post, error) {
	all, err := s.ListPosts(ctx, PostQuery{Page: models.Page{Limit: models.MaxPageSize}})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Post, 0)
	for _, p := range all {
		if len(out) == limit {
			break
		}
		if containsFold(p.Title, term) || containsFold(p.Content, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPostIDs(ctx context.Context, subredditID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for _, p := range s.posts {
		if p.SubredditID == subredditID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *MemoryStore) IncrementCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	p.CommentCount += delta
	return nil
}

// Comments

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return utils.NewDatabaseError("failed to save comment", err)
	}
	s.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.comments[id]; ok {
		return cloneComment(c), nil
	}
	return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}

func (s *MemoryStore) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	out := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ListCommentIDs(ctx context.Context, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for _, c := range s.comments {
		if models.ContainsID(postIDs, c.PostID) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// Votes

// votesLocked must be called with the lock held.
func (s *MemoryStore) votesLocked(target models.ContentRef) (*[]uuid.UUID, *[]uuid.UUID, *time.Time, error) {
	if target.Kind == models.CommentContent {
		c, ok := s.comments[target.ID]
		if !ok {
			return nil, nil, nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
		}
		return &c.Upvotes, &c.Downvotes, &c.UpdatedAt, nil
	}
	p, ok := s.posts[target.ID]
	if !ok {
		return nil, nil, nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return &p.Upvotes, &p.Downvotes, &p.UpdatedAt, nil
}

func (s *MemoryStore) GetVotes(ctx context.Context, target models.ContentRef) (models.Votes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return models.Votes{}, utils.NewDatabaseError("failed to read votes", err)
	}
	up, down, _, err := s.votesLocked(target)
	if err != nil {
		return models.Votes{}, err
	}
	return models.Votes{Upvotes: slices.Clone(*up), Downvotes: slices.Clone(*down)}, nil
}

func (s *MemoryStore) ApplyVote(ctx context.Context, target models.ContentRef, voterID uuid.UUID, from, to models.VoteState) (models.Votes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return models.Votes{}, err
	}
	up, down, updatedAt, err := s.votesLocked(target)
	if err != nil {
		return models.Votes{}, err
	}

	current := models.Votes{Upvotes: *up, Downvotes: *down}
	if current.StateOf(voterID) != from {
		return models.Votes{}, utils.NewAppError(utils.ErrConflict, "vote state changed concurrently", nil)
	}
	next := current.Apply(voterID, to)
	*up, *down = next.Upvotes, next.Downvotes
	*updatedAt = time.Now()
	return models.Votes{Upvotes: slices.Clone(next.Upvotes), Downvotes: slices.Clone(next.Downvotes)}, nil
}

// Reports

func (s *MemoryStore) CreateReport(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = cloneReport(report)
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[id]; ok {
		return cloneReport(r), nil
	}
	return nil, utils.NewAppError(utils.ErrNotFound, "Report not found", nil)
}

func (f ReportFilter) matches(r *models.Report) bool {
	if f.SubredditID != uuid.Nil && r.SubredditID != f.SubredditID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if len(f.PostIDs) == 0 && len(f.CommentIDs) == 0 {
		return true
	}
	if models.ContainsID(f.PostIDs, r.PostID) {
		return true
	}
	return r.Target.Kind == models.CommentContent && models.ContainsID(f.CommentIDs, r.Target.ID)
}

func (s *MemoryStore) ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, error) {
	s.mu.RLock()
	out := make([]*models.Report, 0)
	for _, r := range s.reports {
		if filter.matches(r) {
			out = append(out, cloneReport(r))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateReport(ctx context.Context, id uuid.UUID, status models.ReportStatus, notes string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Report not found", nil)
	}
	r.Status = status
	if notes != "" {
		r.ModeratorNotes = notes
	}
	r.UpdatedAt = time.Now()
	return cloneReport(r), nil
}

// DeleteDocuments removes every ref under one lock.
func (s *MemoryStore) DeleteDocuments(ctx context.Context, refs []DocRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(); err != nil {
		return utils.NewDatabaseError("failed to delete documents", err)
	}
	for _, ref := range refs {
		switch ref.Kind {
		case UserDoc:
			delete(s.users, ref.ID)
		case SubredditDoc:
			delete(s.subreddits, ref.ID)
		case PostDoc:
			delete(s.posts, ref.ID)
		case CommentDoc:
			delete(s.comments, ref.ID)
		case ReportDoc:
			delete(s.reports, ref.ID)
		}
	}
	return nil
}

// Counts reports how many documents of each kind are stored.
func (s *MemoryStore) Counts() map[DocKind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[DocKind]int{
		UserDoc:      len(s.users),
		SubredditDoc: len(s.subreddits),
		PostDoc:      len(s.posts),
		CommentDoc:   len(s.comments),
		ReportDoc:    len(s.reports),
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
