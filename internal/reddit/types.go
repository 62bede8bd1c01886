package reddit

import (
	"strings"

	"gator-forum/internal/models"
)

const permalinkHost = "https://reddit.com"

// PopularSubreddit is one entry of the popular-communities proxy.
type PopularSubreddit struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ListingPost is the normalized summary of an external post.
type ListingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Score       int64   `json:"score"`
	Comments    int64   `json:"comments"`
	CreatedUTC  float64 `json:"createdUtc"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	OutboundURL string  `json:"outboundUrl"`
	Thumbnail   string  `json:"thumbnail"`
	IsVideo     bool    `json:"isVideo"`
}

type Sort string

const (
	SortHot Sort = "hot"
	SortNew Sort = "new"
	SortTop Sort = "top"
)

func (s Sort) Valid() bool {
	return s == SortHot || s == SortNew || s == SortTop
}

type TopRange string

const (
	RangeHour  TopRange = "hour"
	RangeDay   TopRange = "day"
	RangeWeek  TopRange = "week"
	RangeMonth TopRange = "month"
	RangeYear  TopRange = "year"
	RangeAll   TopRange = "all"
)

func (r TopRange) Valid() bool {
	switch r {
	case RangeHour, RangeDay, RangeWeek, RangeMonth, RangeYear, RangeAll:
		return true
	}
	return false
}

// FeedOptions selects the external sort mode and page size.
type FeedOptions struct {
	Sort  Sort
	Range TopRange
	Limit int
}

// Normalize fills defaults (hot, day, 25) and clamps the limit.
func (o FeedOptions) Normalize() FeedOptions {
	if o.Sort == "" {
		o.Sort = SortHot
	}
	if o.Range == "" {
		o.Range = RangeDay
	}
	o.Limit = models.Page{Limit: o.Limit}.Normalize().Limit
	return o
}

// PopularResult is returned by the popular-communities proxy.
type PopularResult struct {
	Items    []PopularSubreddit `json:"items"`
	Fallback bool               `json:"fallback"`
}

// TopicFeed is a normalized multi-community listing for one topic.
type TopicFeed struct {
	Topic    Topic         `json:"topic"`
	Sort     Sort          `json:"sort"`
	Range    TopRange      `json:"range,omitempty"`
	Posts    []ListingPost `json:"posts"`
	Fallback bool          `json:"fallback"`
}

func normalizeSubreddit(d rawSubreddit) PopularSubreddit {
	icon, _, _ := strings.Cut(d.CommunityIcon, "?")
	if icon == "" {
		icon = d.IconImg
	}
	return PopularSubreddit{
		Name:        strings.ToLower(d.DisplayName),
		Title:       d.Title,
		Subscribers: d.Subscribers,
		Icon:        icon,
		Description: d.PublicDescription,
		URL:         permalinkHost + d.URL,
	}
}

func normalizePost(d rawPost) ListingPost {
	outbound := d.URLOverriddenByDest
	if outbound == "" {
		outbound = d.URL
	}
	thumbnail := ""
	if strings.HasPrefix(d.Thumbnail, "http") {
		thumbnail = d.Thumbnail
	}
	return ListingPost{
		ID:          d.ID,
		Title:       d.Title,
		Score:       d.Score,
		Comments:    d.NumComments,
		CreatedUTC:  d.CreatedUTC,
		Subreddit:   d.Subreddit,
		Author:      d.Author,
		Permalink:   permalinkHost + d.Permalink,
		OutboundURL: outbound,
		Thumbnail:   thumbnail,
		IsVideo:     d.IsVideo,
	}
}
