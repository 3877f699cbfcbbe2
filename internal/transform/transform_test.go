package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ety001/hive-social-api/internal/hive"
)

func TestReputationBoundaries(t *testing.T) {
	cases := []struct {
		name string
		raw  float64
		want int
	}{
		{"fresh account", 0, 25},
		{"below log threshold", 1e8, 25},
		{"just at threshold", 1e9, 25},
		{"typical account", 1e12, 55},
		{"max int64", 9223372036854775807, 125},
		{"min int64", -9223372036854775808, -75},
		{"small negative", -5, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ReputationFromFloat(tc.raw))
		})
	}
}

func TestReputationRawForms(t *testing.T) {
	require.Equal(t, 55, Reputation(json.RawMessage(`1000000000000`)))
	require.Equal(t, 55, Reputation(json.RawMessage(`"1000000000000"`)))
	require.Equal(t, 25, Reputation(json.RawMessage(`null`)))
	require.Equal(t, 25, Reputation(json.RawMessage(`"garbage"`)))
	require.Equal(t, 25, Reputation(nil))
}

func TestParseAmount(t *testing.T) {
	value, symbol, err := ParseAmount("1.234 HBD")
	require.NoError(t, err)
	require.Equal(t, "HBD", symbol)
	require.True(t, value.Equal(decimal.RequireFromString("1.234")))

	value, symbol, err = ParseAmount("")
	require.NoError(t, err)
	require.Empty(t, symbol)
	require.True(t, value.IsZero())

	_, _, err = ParseAmount("1.234")
	require.Error(t, err)

	_, _, err = ParseAmount("abc HIVE")
	require.Error(t, err)
}

func TestPostBasics(t *testing.T) {
	tf := New(nil)

	raw := hive.RawPost{
		Author:             "alice",
		Permlink:           "hello-world",
		Title:              "Hello",
		Body:               "First post",
		Created:            "2024-05-01T10:00:00",
		Category:           "introductions",
		JSONMetadata:       json.RawMessage(`{"tags":["life","intro"],"image":["https://img/1.png"]}`),
		Children:           3,
		PendingPayoutValue: "1.000 HBD",
		TotalPayoutValue:   "2.500 HBD",
		CuratorPayoutValue: "0.500 HBD",
		AuthorReputation:   json.RawMessage(`1000000000000`),
		ActiveVotes: []hive.RawVote{
			{Voter: "bob", Percent: json.RawMessage(`10000`)},
			{Voter: "carol", Percent: json.RawMessage(`"5000"`)},
			{Voter: "dave", Percent: json.RawMessage(`-1000`)},
			{Voter: "abstain", Percent: json.RawMessage(`0`), Rshares: json.RawMessage(`0`)},
		},
	}

	item := tf.Post(raw)
	require.Equal(t, "alice/hello-world", item.ID)
	require.Equal(t, "introductions", item.Category)
	require.Equal(t, 2, item.Upvotes)
	require.Equal(t, 1, item.Downvotes)
	require.Equal(t, 3, item.Replies)
	require.Equal(t, "4.000 HBD", item.Payout)
	require.Equal(t, 55, item.Reputation)
	require.Equal(t, []string{"life", "intro"}, item.Tags)
	require.Equal(t, []string{"https://img/1.png"}, item.Images)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), item.Created)
	require.False(t, item.ViewerUpvoted)
}

func TestPostMetadataDoubleEncoded(t *testing.T) {
	tf := New(nil)

	item := tf.Post(hive.RawPost{
		Author:       "alice",
		Permlink:     "p",
		JSONMetadata: json.RawMessage(`"{\"tags\":[\"photography\"]}"`),
	})
	require.Equal(t, []string{"photography"}, item.Tags)
	// No category on the raw record: first tag stands in
	require.Equal(t, "photography", item.Category)
}

func TestPostMetadataGarbage(t *testing.T) {
	tf := New(nil)

	item := tf.Post(hive.RawPost{
		Author:       "alice",
		Permlink:     "p",
		JSONMetadata: json.RawMessage(`"not json at all"`),
	})
	require.NotNil(t, item.Tags)
	require.Empty(t, item.Tags)
	require.NotNil(t, item.Images)
	require.Empty(t, item.Images)
}

func TestPostNetVotesFallback(t *testing.T) {
	tf := New(nil)

	up := 12
	item := tf.Post(hive.RawPost{Author: "a", Permlink: "p", NetVotes: &up})
	require.Equal(t, 12, item.Upvotes)
	require.Equal(t, 0, item.Downvotes)

	down := -4
	item = tf.Post(hive.RawPost{Author: "a", Permlink: "p", NetVotes: &down})
	require.Equal(t, 0, item.Upvotes)
	require.Equal(t, 4, item.Downvotes)

	// Neither source present: tallies degrade to zero
	item = tf.Post(hive.RawPost{Author: "a", Permlink: "p"})
	require.Equal(t, 0, item.Upvotes)
	require.Equal(t, 0, item.Downvotes)
}

func TestVotingPowerAt(t *testing.T) {
	lastVote := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// No elapsed time: stored mana reported as-is
	require.Equal(t, 80, VotingPowerAt(8000, lastVote, lastVote))

	// Half a day regenerates half the bar
	require.Equal(t, 75, VotingPowerAt(2500, lastVote, lastVote.Add(12*time.Hour)))

	// Regeneration caps at 100
	require.Equal(t, 100, VotingPowerAt(9000, lastVote, lastVote.Add(48*time.Hour)))

	// Never-voted accounts carry no last vote time
	require.Equal(t, 100, VotingPowerAt(10000, time.Time{}, lastVote))
}

func TestProfileAssembly(t *testing.T) {
	tf := New(nil)

	acct := hive.RawAccount{
		Name:                "alice",
		PostingJSONMetadata: json.RawMessage(`{"profile":{"name":"Alice","about":"hi","location":"earth"}}`),
		Balance:             "10.000 HIVE",
		HBDBalance:          "5.000 HBD",
		VestingShares:       "2000.000000 VESTS",
		DelegatedVesting:    "500.000000 VESTS",
		ReceivedVesting:     "500.000000 VESTS",
		VotingPower:         10000,
		LastVoteTime:        "2024-05-01T00:00:00",
		PostCount:           42,
		Reputation:          json.RawMessage(`1000000000000`),
	}
	props := &hive.RawGlobalProperties{
		TotalVestingFundHive: "1000.000 HIVE",
		TotalVestingShares:   "2000000.000000 VESTS",
	}
	follows := &hive.RawFollowCount{FollowerCount: 9, FollowingCount: 4}

	profile := tf.Profile(acct, props, follows, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.Equal(t, "alice", profile.Username)
	require.Equal(t, "Alice", profile.DisplayName)
	require.Equal(t, "hi", profile.About)
	require.Equal(t, "1.000 HP", profile.HivePower)
	require.Equal(t, 100, profile.VotingPower)
	require.Equal(t, 55, profile.Reputation)
	require.Equal(t, 42, profile.PostCount)
	require.Equal(t, 9, profile.Followers)
	require.Equal(t, 4, profile.Following)
}

func TestProfileFallsBackToUsername(t *testing.T) {
	tf := New(nil)

	profile := tf.Profile(hive.RawAccount{Name: "bob"}, &hive.RawGlobalProperties{}, nil, time.Now())
	require.Equal(t, "bob", profile.DisplayName)
	require.Equal(t, "0.000 HP", profile.HivePower)
	require.Zero(t, profile.Followers)
}
