package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gator-forum/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SimulateActivities runs the post, comment and vote generators until ctx
// ends. Comments and votes are skipped until at least one post exists.
func (s *Simulator) SimulateActivities(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.every(ctx, s.config.PostFrequency, s.createPost) })
	g.Go(func() error { return s.every(ctx, s.config.CommentFrequency, s.createComment) })
	g.Go(func() error { return s.every(ctx, s.config.VoteFrequency, s.castVote) })
	return g.Wait()
}

// every runs action at perUserHour * NumUsers per hour across the user base.
func (s *Simulator) every(ctx context.Context, perUserHour float64, action func(context.Context) error) error {
	perSecond := perUserHour * float64(s.config.NumUsers) / 3600
	if perSecond <= 0 {
		<-ctx.Done()
		return nil
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if err := action(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug("simulated action failed", zap.Error(err))
		}
	}
}

var errNothingYet = errors.New("no content to act on yet")

func (s *Simulator) randomUser() *SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[s.intn(len(s.users))]
}

func (s *Simulator) createPost(ctx context.Context) error {
	user := s.randomUser()

	s.mu.RLock()
	if len(s.subreddits) == 0 {
		s.mu.RUnlock()
		return errNothingYet
	}
	sub := s.subreddits[s.getZipfNumber(len(s.subreddits))-1]
	if len(user.Subscriptions) > 0 {
		name := user.Subscriptions[s.intn(len(user.Subscriptions))]
		for _, candidate := range s.subreddits {
			if candidate.Name == name {
				sub = candidate
				break
			}
		}
	}
	s.mu.RUnlock()

	body := map[string]string{
		"subredditId": sub.ID.String(),
		"title":       fmt.Sprintf("Post by %s in r/%s", user.Username, sub.Name),
		"postType":    string(models.TextPost),
		"content":     "Simulated post content.",
	}
	var post models.Post
	if err := s.call(ctx, user, http.MethodPost, "/api/posts", body, &post); err != nil {
		return err
	}

	s.mu.Lock()
	s.posts = append(s.posts, post.ID)
	s.mu.Unlock()
	s.stats.mu.Lock()
	s.stats.TotalPosts++
	s.stats.mu.Unlock()
	return nil
}

// createComment replies to a random post, and sometimes to an existing
// comment on that post.
func (s *Simulator) createComment(ctx context.Context) error {
	user := s.randomUser()

	s.mu.RLock()
	if len(s.posts) == 0 {
		s.mu.RUnlock()
		return errNothingYet
	}
	postID := s.posts[s.intn(len(s.posts))]
	var parentID uuid.UUID
	if len(s.comments) > 0 && s.chance(0.3) {
		parent := s.comments[s.intn(len(s.comments))]
		postID, parentID = parent.PostID, parent.ID
	}
	s.mu.RUnlock()

	body := map[string]string{"text": fmt.Sprintf("Comment from %s", user.Username)}
	if parentID != uuid.Nil {
		body["parentId"] = parentID.String()
	}
	var comment models.Comment
	if err := s.call(ctx, user, http.MethodPost, "/api/posts/"+postID.String()+"/comments", body, &comment); err != nil {
		return err
	}

	s.mu.Lock()
	s.comments = append(s.comments, commentRef{ID: comment.ID, PostID: postID})
	s.mu.Unlock()
	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
	return nil
}

// castVote votes on a random post or comment, upvoting three times in four.
func (s *Simulator) castVote(ctx context.Context) error {
	user := s.randomUser()

	s.mu.RLock()
	if len(s.posts) == 0 {
		s.mu.RUnlock()
		return errNothingYet
	}
	path := "/api/posts/" + s.posts[s.intn(len(s.posts))].String() + "/vote"
	if len(s.comments) > 0 && s.chance(0.4) {
		path = "/api/comments/" + s.comments[s.intn(len(s.comments))].ID.String() + "/vote"
	}
	s.mu.RUnlock()

	direction := models.VoteUp
	if s.chance(0.25) {
		direction = models.VoteDown
	}
	if err := s.call(ctx, user, http.MethodPost, path, map[string]string{"voteType": string(direction)}, nil); err != nil {
		return err
	}

	s.stats.mu.Lock()
	s.stats.TotalVotes++
	s.stats.mu.Unlock()
	return nil
}
