package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var subredditNamePattern = regexp.MustCompile(`^[a-z0-9_]{3,21}$`)

// Subreddit is a community.
type Subreddit struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"description"`
	CreatorID   uuid.UUID   `json:"creatorId"`
	Members     []uuid.UUID `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NormalizeSubredditName lowercases and trims a requested name.
func NormalizeSubredditName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidSubredditName reports whether a normalized name is acceptable.
func ValidSubredditName(name string) bool {
	return subredditNamePattern.MatchString(name)
}

func (s *Subreddit) IsMember(userID uuid.UUID) bool {
	return ContainsID(s.Members, userID)
}

func (s *Subreddit) MemberCount() int {
	return len(s.Members)
}

// SubredditSummary is the list entry shape. The viewer fields are only
// populated for authenticated callers.
type SubredditSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	MemberCount *int      `json:"memberCount,omitempty"`
	IsMember    *bool     `json:"isMember,omitempty"`
	CanDelete   *bool     `json:"canDelete,omitempty"`
}

// Summarize builds a list entry; viewer may be uuid.Nil for anonymous callers.
func (s *Subreddit) Summarize(viewer uuid.UUID) SubredditSummary {
	summary := SubredditSummary{ID: s.ID, Name: s.Name, DisplayName: s.DisplayName}
	if viewer != uuid.Nil {
		count := s.MemberCount()
		member := s.IsMember(viewer)
		creator := s.CreatorID == viewer
		summary.MemberCount = &count
		summary.IsMember = &member
		summary.CanDelete = &creator
	}
	return summary
}

// SubredditDetails is returned for a single community.
type SubredditDetails struct {
	*Subreddit
	MemberCount int  `json:"memberCount"`
	IsMember    bool `json:"isMember"`
	CanDelete   bool `json:"canDelete"`
}
