package models

// Rule is an entry of the subreddit rulebook, cited when a post is removed
type Rule struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// RulesFile is the layout of delete_post_rules.json
type RulesFile struct {
	Rules []Rule `json:"rules"`
}

// WordsFile is the layout of words_blacklist.json
type WordsFile struct {
	Words []string `json:"words"`
}

// AutoPinRule pins a relayed post whose title contains Text when it is
// authored by one of Users
type AutoPinRule struct {
	Text  string   `json:"text"`
	Users []string `json:"users"`
}
