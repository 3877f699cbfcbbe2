package models

import "time"

// SocialFeedItem is a normalized post or comment.
// The ID is "author/permlink", unique per item.
// Instances are immutable once built except for the vote tallies,
// which the feed layer may patch optimistically while a vote is
// awaiting broadcast confirmation.
type SocialFeedItem struct {
	ID              string    `json:"id"`
	Author          string    `json:"author"`
	Permlink        string    `json:"permlink"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Created         time.Time `json:"created"`
	Category        string    `json:"category"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	Replies         int       `json:"replies"`
	Payout          string    `json:"payout"`
	Reputation      int       `json:"reputation"`
	Tags            []string  `json:"tags"`
	Images          []string  `json:"images"`
	ViewerUpvoted   bool      `json:"viewer_upvoted"`
	ViewerDownvoted bool      `json:"viewer_downvoted"`
}

// UserProfile is a normalized account view. It is rebuilt on every
// profile fetch and never cached across users.
type UserProfile struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	About       string `json:"about"`
	Website     string `json:"website"`
	Location    string `json:"location"`
	Balance     string `json:"balance"`      // e.g. "1.234 HIVE"
	HBDBalance  string `json:"hbd_balance"`  // e.g. "1.234 HBD"
	HivePower   string `json:"hive_power"`   // e.g. "1234.567 HP"
	VotingPower int    `json:"voting_power"` // percentage 0..100
	Reputation  int    `json:"reputation"`
	PostCount   int    `json:"post_count"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}
