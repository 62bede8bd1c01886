// Package reddit reads public listings from the external listing API and
// normalizes them for the forum.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gator-forum/internal/utils"

	"golang.org/x/time/rate"
)

const popularLimit = 20

// ClientConfig configures outbound listing requests.
type ClientConfig struct {
	BaseURL       string
	UserAgent     string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// Client performs rate-limited GETs against the listing API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// listing is the envelope shared by every listing response.
type listing[T any] struct {
	Data struct {
		Children []struct {
			Data T `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawSubreddit struct {
	DisplayName       string `json:"display_name"`
	Title             string `json:"title"`
	Subscribers       int64  `json:"subscribers"`
	CommunityIcon     string `json:"community_icon"`
	IconImg           string `json:"icon_img"`
	PublicDescription string `json:"public_description"`
	URL               string `json:"url"`
}

type rawPost struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Score               int64   `json:"score"`
	NumComments         int64   `json:"num_comments"`
	CreatedUTC          float64 `json:"created_utc"`
	Subreddit           string  `json:"subreddit"`
	Author              string  `json:"author"`
	Permalink           string  `json:"permalink"`
	URL                 string  `json:"url"`
	URLOverriddenByDest string  `json:"url_overridden_by_dest"`
	Thumbnail           string  `json:"thumbnail"`
	IsVideo             bool    `json:"is_video"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return utils.NewAppError(utils.ErrTooManyRequests, "outbound listing budget exhausted", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrUpstream, "failed to build listing request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrUpstream, "listing request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return utils.NewAppError(utils.ErrTooManyRequests, "listing API rate limited the request", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return utils.NewAppError(utils.ErrUpstream, fmt.Sprintf("listing API returned HTTP %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.NewAppError(utils.ErrUpstream, "malformed listing response", err)
	}
	return nil
}

// PopularSubreddits fetches the external popular-communities listing.
func (c *Client) PopularSubreddits(ctx context.Context) ([]PopularSubreddit, error) {
	var body listing[rawSubreddit]
	query := url.Values{"limit": {strconv.Itoa(popularLimit)}}
	if err := c.get(ctx, "/subreddits/popular.json", query, &body); err != nil {
		return nil, err
	}

	items := make([]PopularSubreddit, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		items = append(items, normalizeSubreddit(child.Data))
	}
	return items, nil
}

// MultiFeed fetches one listing for the union of the given communities.
func (c *Client) MultiFeed(ctx context.Context, subreddits []string, opts FeedOptions) ([]ListingPost, error) {
	query := url.Values{
		"limit":    {strconv.Itoa(opts.Limit)},
		"raw_json": {"1"},
	}
	if opts.Sort == SortTop {
		query.Set("t", string(opts.Range))
	}
	path := fmt.Sprintf("/r/%s/%s.json", strings.Join(subreddits, "+"), opts.Sort)

	var body listing[rawPost]
	if err := c.get(ctx, path, query, &body); err != nil {
		return nil, err
	}

	posts := make([]ListingPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		posts = append(posts, normalizePost(child.Data))
	}
	return posts, nil
}
