package actors

import (
	stdctx "context"

	"gator-forum/internal/database"
	"gator-forum/internal/models"

	"github.com/google/uuid"
)

// deletionPlan lists every document removed by one delete, in removal order:
// comments, then posts, then reports, then the community itself.
type deletionPlan struct {
	comments  []uuid.UUID
	posts     []uuid.UUID
	reports   []uuid.UUID
	subreddit uuid.UUID
}

func (p *deletionPlan) refs() []database.DocRef {
	refs := make([]database.DocRef, 0, len(p.comments)+len(p.posts)+len(p.reports)+1)
	for _, id := range p.comments {
		refs = append(refs, database.DocRef{Kind: database.CommentDoc, ID: id})
	}
	for _, id := range p.posts {
		refs = append(refs, database.DocRef{Kind: database.PostDoc, ID: id})
	}
	for _, id := range p.reports {
		refs = append(refs, database.DocRef{Kind: database.ReportDoc, ID: id})
	}
	if p.subreddit != uuid.Nil {
		refs = append(refs, database.DocRef{Kind: database.SubredditDoc, ID: p.subreddit})
	}
	return refs
}

// gatherReports adds the reports filed against any planned post or comment.
func (p *deletionPlan) gatherReports(ctx stdctx.Context, db database.DBAdapter) error {
	if len(p.posts) == 0 && len(p.comments) == 0 {
		return nil
	}
	reports, err := db.ListReports(ctx, database.ReportFilter{PostIDs: p.posts, CommentIDs: p.comments})
	if err != nil {
		return err
	}
	for _, r := range reports {
		p.reports = append(p.reports, r.ID)
	}
	return nil
}

// execute removes the planned documents in bounded batches.
func (p *deletionPlan) execute(ctx stdctx.Context, db database.DBAdapter) error {
	return database.DeleteInBatches(ctx, db, p.refs())
}

// planSubredditDeletion gathers a community's posts, their comments and any
// reports on them.
func planSubredditDeletion(ctx stdctx.Context, db database.DBAdapter, subredditID uuid.UUID) (*deletionPlan, error) {
	plan := &deletionPlan{subreddit: subredditID}

	posts, err := db.ListPostIDs(ctx, subredditID)
	if err != nil {
		return nil, err
	}
	plan.posts = posts

	comments, err := db.ListCommentIDs(ctx, posts)
	if err != nil {
		return nil, err
	}
	plan.comments = comments

	if err := plan.gatherReports(ctx, db); err != nil {
		return nil, err
	}
	return plan, nil
}

// sweepSubreddit removes what was written for a deleted community while its
// plan ran: posts created after the listing and comments added to any of its
// posts. Posts and comments are created on other actors, so the plan alone can
// miss them.
func sweepSubreddit(ctx stdctx.Context, db database.DBAdapter, done *deletionPlan) (*deletionPlan, error) {
	late := &deletionPlan{}

	posts, err := db.ListPostIDs(ctx, done.subreddit)
	if err != nil {
		return nil, err
	}
	late.posts = posts

	known := make([]uuid.UUID, 0, len(done.posts)+len(posts))
	known = append(append(known, done.posts...), posts...)
	comments, err := db.ListCommentIDs(ctx, known)
	if err != nil {
		return nil, err
	}
	late.comments = comments

	if err := late.gatherReports(ctx, db); err != nil {
		return nil, err
	}
	if err := late.execute(ctx, db); err != nil {
		return nil, err
	}
	return late, nil
}

// absorb adds the documents removed by another plan to p's totals.
func (p *deletionPlan) absorb(other *deletionPlan) {
	p.comments = append(p.comments, other.comments...)
	p.posts = append(p.posts, other.posts...)
	p.reports = append(p.reports, other.reports...)
}

func planPostDeletion(ctx stdctx.Context, db database.DBAdapter, postID uuid.UUID) (*deletionPlan, error) {
	plan := &deletionPlan{posts: []uuid.UUID{postID}}

	comments, err := db.ListCommentIDs(ctx, plan.posts)
	if err != nil {
		return nil, err
	}
	plan.comments = comments

	if err := plan.gatherReports(ctx, db); err != nil {
		return nil, err
	}
	return plan, nil
}

// planCommentDeletion gathers a comment and all of its descendant replies.
func planCommentDeletion(ctx stdctx.Context, db database.DBAdapter, comment *models.Comment) (*deletionPlan, error) {
	siblings, err := db.ListComments(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]uuid.UUID)
	for _, c := range siblings {
		if c.ParentCommentID != nil {
			children[*c.ParentCommentID] = append(children[*c.ParentCommentID], c.ID)
		}
	}

	plan := &deletionPlan{}
	queue := []uuid.UUID{comment.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		plan.comments = append(plan.comments, id)
		queue = append(queue, children[id]...)
	}

	if err := plan.gatherReports(ctx, db); err != nil {
		return nil, err
	}
	return plan, nil
}
