package reddit

// fallbackPopular is served whenever the popular listing cannot be fetched.
var fallbackPopular = []PopularSubreddit{
	{
		Name:        "askreddit",
		Title:       "Ask Reddit",
		Subscribers: 45000000,
		Description: "r/AskReddit is the place to ask and answer thought-provoking questions.",
		URL:         "https://reddit.com/r/askreddit",
	},
	{
		Name:        "funny",
		Title:       "funny",
		Subscribers: 42000000,
		Description: "Welcome to r/funny!",
		URL:         "https://reddit.com/r/funny",
	},
	{
		Name:        "gaming",
		Title:       "Gaming",
		Subscribers: 38000000,
		Description: "A subreddit for (almost) anything related to games.",
		URL:         "https://reddit.com/r/gaming",
	},
	{
		Name:        "pics",
		Title:       "pics",
		Subscribers: 30000000,
		Description: "A place to share interesting photographs and pictures.",
		URL:         "https://reddit.com/r/pics",
	},
	{
		Name:        "science",
		Title:       "science",
		Subscribers: 32000000,
		Description: "This community is for intelligent discussions about science.",
		URL:         "https://reddit.com/r/science",
	},
}

func FallbackPopular() []PopularSubreddit {
	out := make([]PopularSubreddit, len(fallbackPopular))
	copy(out, fallbackPopular)
	return out
}
