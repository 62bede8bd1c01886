package reddit

// Topic groups several external communities under one slug.
type Topic struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subreddits  []string `json:"subreddits"`
}

var topics = []Topic{
	{"internet-culture", "Internet Culture", "Memes, viral moments, and online trends.",
		[]string{"memes", "shitposting", "AskReddit", "OutOfTheLoop"}},
	{"technology", "Technology", "Latest in tech, gadgets, and science-ish news.",
		[]string{"technology", "Futurology", "gadgets", "programming"}},
	{"movies", "Movies", "Film talk, box office, trailers.",
		[]string{"movies", "boxoffice", "TrueFilm"}},
	{"television", "Television", "Shows, episodes, and streaming.",
		[]string{"television", "tvdetails"}},
	{"games", "Games", "Gaming news, PC/console talk, and esports.",
		[]string{"gaming", "pcgaming", "nintendo", "xbox", "PlayStation", "esports"}},
	{"books", "Books", "What to read next and book talk.",
		[]string{"books", "bookclub"}},
	{"pics", "Pics", "Photography and visual candy.",
		[]string{"pics", "itookapicture", "EarthPorn"}},
	{"music", "Music", "New releases and music discussion.",
		[]string{"Music", "listentothis", "hiphopheads", "indieheads"}},
	{"food", "Food", "Cooking, recipes, and food pics.",
		[]string{"food", "Cooking", "AskCulinary"}},
}

// Topics returns every topic in display order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

func LookupTopic(slug string) (Topic, bool) {
	for _, t := range topics {
		if t.Slug == slug {
			return t, true
		}
	}
	return Topic{}, false
}
