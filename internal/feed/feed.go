package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/broadcast"
	"github.com/ety001/hive-social-api/internal/cache"
	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
	"github.com/ety001/hive-social-api/internal/transform"
)

// SortMode selects a feed ordering
type SortMode string

const (
	SortTrending SortMode = "trending"
	SortHot      SortMode = "hot"
	SortRecent   SortMode = "recent"
)

// ErrInvalidSort is returned for an unknown sort mode
var ErrInvalidSort = errors.New("invalid sort mode")

// ErrVoteInFlight means a vote for the same item is already
// awaiting its broadcast outcome
var ErrVoteInFlight = errors.New("a vote for this item is already in flight")

// Cursor identifies the last item of the previous page. A nil
// cursor means the first page.
type Cursor struct {
	StartAuthor   string `json:"start_author"`
	StartPermlink string `json:"start_permlink"`
}

// Page is one feed window with the cursor for the next one. A nil
// NextCursor means the end of the feed.
type Page struct {
	Items      []models.SocialFeedItem `json:"items"`
	NextCursor *Cursor                 `json:"next_cursor,omitempty"`
}

// Feed orchestrates paginated discussion fetches through the
// failover client and transformer, and tracks fetched items so vote
// tallies can be patched optimistically while a broadcast is
// pending.
type Feed struct {
	caller  hive.Caller
	tf      *transform.Transformer
	gateway *broadcast.Gateway
	cache   *cache.Cache
	logger  *zap.Logger

	mu     sync.Mutex
	items  map[string]*models.SocialFeedItem
	voting map[string]bool
}

// New creates a feed query layer
func New(caller hive.Caller, tf *transform.Transformer, gateway *broadcast.Gateway, c *cache.Cache, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		caller:  caller,
		tf:      tf,
		gateway: gateway,
		cache:   c,
		logger:  logger,
		items:   make(map[string]*models.SocialFeedItem),
		voting:  make(map[string]bool),
	}
}

// condenserMethod maps a sort mode to its discussion-listing RPC
func condenserMethod(sort SortMode) (string, error) {
	switch sort {
	case SortTrending:
		return hive.MethodDiscussionsTrending, nil
	case SortHot:
		return hive.MethodDiscussionsHot, nil
	case SortRecent:
		return hive.MethodDiscussionsCreated, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, sort)
	}
}

// bridgeSort maps a sort mode to the bridge namespace's sort keys
func bridgeSort(sort SortMode) (string, error) {
	switch sort {
	case SortTrending:
		return "trending", nil
	case SortHot:
		return "hot", nil
	case SortRecent:
		return "created", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, sort)
	}
}

// isCommunityTag reports whether a tag names a community, which the
// bridge namespace serves
func isCommunityTag(tag string) bool {
	return strings.HasPrefix(tag, "hive-")
}

func (f *Feed) fetchRaw(ctx context.Context, sort SortMode, tag string, cursor *Cursor, limit int) ([]hive.RawPost, error) {
	// Request one extra row: listing calls echo the cursor row as
	// the first element of the next page.
	requested := limit
	if cursor != nil {
		requested++
	}

	var raw json.RawMessage
	var err error
	if isCommunityTag(tag) {
		sortKey, sErr := bridgeSort(sort)
		if sErr != nil {
			return nil, sErr
		}
		params := map[string]any{
			"sort":  sortKey,
			"tag":   tag,
			"limit": requested,
		}
		if cursor != nil {
			params["start_author"] = cursor.StartAuthor
			params["start_permlink"] = cursor.StartPermlink
		}
		raw, err = f.caller.Call(ctx, hive.MethodBridgeGetRankedPosts, params)
	} else {
		method, mErr := condenserMethod(sort)
		if mErr != nil {
			return nil, mErr
		}
		query := map[string]any{
			"tag":   tag,
			"limit": requested,
		}
		if cursor != nil {
			query["start_author"] = cursor.StartAuthor
			query["start_permlink"] = cursor.StartPermlink
		}
		raw, err = f.caller.Call(ctx, method, []any{query})
	}
	if err != nil {
		return nil, err
	}

	posts, err := hive.ParsePosts(raw)
	if err != nil {
		return nil, err
	}

	// Drop the echoed cursor row
	if cursor != nil && len(posts) > 0 &&
		posts[0].Author == cursor.StartAuthor && posts[0].Permlink == cursor.StartPermlink {
		posts = posts[1:]
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Page fetches one feed window. Only first pages are cached; cursor
// pages are always live.
func (f *Feed) Page(ctx context.Context, sort SortMode, tag string, cursor *Cursor, limit int) (*Page, error) {
	if limit <= 0 {
		limit = 20
	}

	cacheKey := ""
	if cursor == nil {
		cacheKey = fmt.Sprintf("feed:%s:%s:%d", sort, tag, limit)
		var cached Page
		if f.cache.Get(ctx, cacheKey, &cached) {
			f.registerItems(cached.Items)
			return &cached, nil
		}
	}

	posts, err := f.fetchRaw(ctx, sort, tag, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s feed: %w", sort, err)
	}

	items := make([]models.SocialFeedItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, f.tf.Post(post))
	}

	page := &Page{Items: items}
	if len(items) > 0 {
		last := items[len(items)-1]
		page.NextCursor = &Cursor{StartAuthor: last.Author, StartPermlink: last.Permlink}
	}

	f.registerItems(items)
	if cacheKey != "" {
		f.cache.Set(ctx, cacheKey, page)
	}
	return page, nil
}

// registerItems remembers fetched items for optimistic vote patching
func (f *Feed) registerItems(items []models.SocialFeedItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		item := items[i]
		f.items[item.ID] = &item
	}
}

// Item returns the tracked copy of a fetched item
func (f *Feed) Item(id string) (models.SocialFeedItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return models.SocialFeedItem{}, false
	}
	return *item, true
}

// Vote submits a vote through the gateway. For a tracked item the
// tallies are patched before the broadcast is dispatched and rolled
// back if the signer reports failure. Votes are single-flight per
// item: a second vote while one is pending is rejected.
func (f *Feed) Vote(ctx context.Context, voter, author, permlink string, weight int) error {
	id := author + "/" + permlink

	f.mu.Lock()
	if f.voting[id] {
		f.mu.Unlock()
		return ErrVoteInFlight
	}
	f.voting[id] = true

	item, tracked := f.items[id]
	var snapshot models.SocialFeedItem
	if tracked {
		snapshot = *item
		switch {
		case weight > 0:
			item.Upvotes++
			item.ViewerUpvoted = true
		case weight < 0:
			item.Downvotes++
			item.ViewerDownvoted = true
		}
	}
	f.mu.Unlock()

	err := f.gateway.Vote(ctx, voter, author, permlink, weight)

	f.mu.Lock()
	delete(f.voting, id)
	if err != nil && tracked {
		*item = snapshot
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("vote rolled back",
			zap.String("voter", voter),
			zap.String("item", id),
			zap.Error(err))
		return err
	}
	return nil
}
