package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// VoteData is the payload of a vote operation
type VoteData struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int    `json:"weight"`
}

// Comment is a post or reply submission
type Comment struct {
	ParentAuthor   string   `json:"parent_author"`
	ParentPermlink string   `json:"parent_permlink"`
	Author         string   `json:"author"`
	Permlink       string   `json:"permlink"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	Tags           []string `json:"tags,omitempty"`
}

// Gateway constructs operation payloads and delegates signing and
// broadcast to the configured signer. A failed broadcast is
// surfaced to the caller without retrying; the caller decides
// whether to prompt the user again.
type Gateway struct {
	signer  Signer
	logger  *zap.Logger
	timeout time.Duration
}

// NewGateway creates a gateway. A nil signer is allowed: every
// operation then fails with ErrSignerUnavailable.
func NewGateway(signer Signer, logger *zap.Logger, timeout time.Duration) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{signer: signer, logger: logger, timeout: timeout}
}

// Available reports whether a signer is configured
func (g *Gateway) Available() bool {
	return g != nil && g.signer != nil
}

func (g *Gateway) broadcast(ctx context.Context, account string, ops []Operation) error {
	if !g.Available() {
		return ErrSignerUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	receipt, err := g.signer.Broadcast(ctx, account, ops, "posting")
	if err != nil {
		return err
	}

	g.logger.Info("operation broadcast",
		zap.String("account", account),
		zap.String("type", ops[0].Type),
		zap.String("tx_id", receipt.TxID))
	return nil
}

// Vote signs and broadcasts a vote operation. Weight is in basis
// points: 10000 is a full upvote, negative values downvote.
func (g *Gateway) Vote(ctx context.Context, voter, author, permlink string, weight int) error {
	op := Operation{Type: "vote", Data: VoteData{
		Voter:    voter,
		Author:   author,
		Permlink: permlink,
		Weight:   weight,
	}}
	if err := g.broadcast(ctx, voter, []Operation{op}); err != nil {
		return fmt.Errorf("vote failed: %w", err)
	}
	return nil
}

// commentData is the wire payload of a comment operation
type commentData struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JSONMetadata   string `json:"json_metadata"`
}

// SubmitComment signs and broadcasts a comment or top-level post
func (g *Gateway) SubmitComment(ctx context.Context, c Comment) error {
	meta, err := json.Marshal(map[string]any{
		"tags": c.Tags,
		"app":  "hive-social-api",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal comment metadata: %w", err)
	}

	op := Operation{Type: "comment", Data: commentData{
		ParentAuthor:   c.ParentAuthor,
		ParentPermlink: c.ParentPermlink,
		Author:         c.Author,
		Permlink:       c.Permlink,
		Title:          c.Title,
		Body:           c.Body,
		JSONMetadata:   string(meta),
	}}
	if err := g.broadcast(ctx, c.Author, []Operation{op}); err != nil {
		return fmt.Errorf("comment failed: %w", err)
	}
	return nil
}
