package transform

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
)

// Transformer maps raw node records into normalized application
// records. It performs no I/O; malformed input degrades to safe
// defaults with a logged warning instead of an error.
type Transformer struct {
	logger *zap.Logger
}

// New creates a Transformer
func New(logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{logger: logger}
}

// postMetadata is the subset of json_metadata the feed renders
type postMetadata struct {
	Tags  []string `json:"tags"`
	Image []string `json:"image"`
}

// parseMetadata tolerates json_metadata arriving as an object, a
// JSON string wrapping an object, or garbage. Garbage falls back to
// an empty object.
func (t *Transformer) parseMetadata(raw json.RawMessage) postMetadata {
	var meta postMetadata
	if len(raw) == 0 || string(raw) == "null" {
		return meta
	}

	if err := json.Unmarshal(raw, &meta); err == nil {
		return meta
	}

	// Some nodes return the metadata double-encoded as a string
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		var inner postMetadata
		if err := json.Unmarshal([]byte(encoded), &inner); err == nil {
			return inner
		}
	}

	t.logger.Warn("unparseable json_metadata, using empty object",
		zap.String("raw", truncate(string(raw), 120)))
	return postMetadata{}
}

// parseTime handles the node's bare timestamp format with an
// RFC3339 fallback
func (t *Transformer) parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			t.logger.Warn("unparseable timestamp", zap.String("value", s))
			return time.Time{}
		}
	}
	return ts
}

// voteCounts prefers the explicit active_votes list, falls back to
// the signed net_votes scalar, and finally to zero with a warning
func (t *Transformer) voteCounts(raw hive.RawPost) (int, int) {
	if raw.ActiveVotes != nil {
		up, down := 0, 0
		for _, v := range raw.ActiveVotes {
			weight, ok := hive.ParseInt64(v.Percent)
			if !ok || weight == 0 {
				weight, _ = hive.ParseInt64(v.Rshares)
			}
			switch {
			case weight > 0:
				up++
			case weight < 0:
				down++
			}
		}
		return up, down
	}

	if raw.NetVotes != nil {
		if *raw.NetVotes >= 0 {
			return *raw.NetVotes, 0
		}
		return 0, -*raw.NetVotes
	}

	t.logger.Warn("post carries neither active_votes nor net_votes",
		zap.String("author", raw.Author),
		zap.String("permlink", raw.Permlink))
	return 0, 0
}

// payout sums the pending, total and curator payout fields at fixed
// 3-decimal precision
func (t *Transformer) payout(raw hive.RawPost) string {
	total := decimal.Zero
	for _, field := range []string{raw.PendingPayoutValue, raw.TotalPayoutValue, raw.CuratorPayoutValue} {
		value, _, err := ParseAmount(field)
		if err != nil {
			t.logger.Warn("unparseable payout field",
				zap.String("value", field),
				zap.String("author", raw.Author),
				zap.String("permlink", raw.Permlink))
			continue
		}
		total = total.Add(value)
	}
	return FormatAmount(total, "HBD")
}

// Post normalizes a raw discussion record into a feed item
func (t *Transformer) Post(raw hive.RawPost) models.SocialFeedItem {
	meta := t.parseMetadata(raw.JSONMetadata)

	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	images := meta.Image
	if images == nil {
		images = []string{}
	}

	category := raw.Category
	if category == "" && len(tags) > 0 {
		category = tags[0]
	}

	up, down := t.voteCounts(raw)

	return models.SocialFeedItem{
		ID:         raw.Author + "/" + raw.Permlink,
		Author:     raw.Author,
		Permlink:   raw.Permlink,
		Title:      raw.Title,
		Body:       raw.Body,
		Created:    t.parseTime(raw.Created),
		Category:   category,
		Upvotes:    up,
		Downvotes:  down,
		Replies:    raw.Children,
		Payout:     t.payout(raw),
		Reputation: Reputation(raw.AuthorReputation),
		Tags:       tags,
		Images:     images,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
