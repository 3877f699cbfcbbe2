package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
)

// Page is one window of the aggregated, deduplicated ledger. Error
// carries accumulated non-fatal per-account failures next to
// whatever partial data succeeded.
type Page struct {
	Transactions []models.Transaction `json:"transactions"`
	HasMore      bool                 `json:"has_more"`
	Error        string               `json:"error,omitempty"`
}

// Aggregator merges the raw history of one or more accounts into a
// unified ledger: sorted by timestamp descending, deduplicated by
// hash (first occurrence wins), windowed by page size. Stats are
// computed once per distinct account set; Refresh resets that guard.
type Aggregator struct {
	caller   hive.Caller
	logger   *zap.Logger
	pageSize int
	workers  int

	mu       sync.Mutex
	accounts []string
	pool     []models.Transaction
	loaded   int
	hasMore  bool
	loading  bool
	errMsg   string
	stats    *models.TransactionStats
	statsKey string
}

// NewAggregator creates an aggregator
func NewAggregator(caller hive.Caller, logger *zap.Logger, pageSize, workers int) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if workers <= 0 {
		workers = 4
	}
	return &Aggregator{
		caller:   caller,
		logger:   logger,
		pageSize: pageSize,
		workers:  workers,
	}
}

func normalizeAccounts(accounts []string) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Fetch loads the first page for an account set. An empty set
// resets to an empty, non-loading, non-error state.
func (a *Aggregator) Fetch(ctx context.Context, accounts []string) Page {
	accounts = normalizeAccounts(accounts)

	a.mu.Lock()
	if a.loading {
		page := a.snapshotLocked()
		a.mu.Unlock()
		return page
	}
	a.accounts = accounts
	if len(accounts) == 0 {
		a.pool = nil
		a.loaded = 0
		a.hasMore = false
		a.errMsg = ""
		a.stats = nil
		a.statsKey = ""
		page := a.snapshotLocked()
		a.mu.Unlock()
		return page
	}
	a.loading = true
	a.mu.Unlock()

	perAccount, errMsg := a.fetchWindow(ctx, accounts, a.pageSize)
	pool := mergeDedup(accounts, perAccount)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	a.pool = pool
	a.errMsg = errMsg
	a.loaded = min(a.pageSize, len(pool))
	a.hasMore = len(pool) > a.loaded

	key := strings.Join(accounts, ",")
	if a.statsKey != key {
		a.stats = mergeStats(perAccountStats(accounts, perAccount))
		a.statsKey = key
	}
	return a.snapshotLocked()
}

// LoadMore extends the window by one page. It is a no-op while a
// fetch is in flight or when there is nothing more to load.
func (a *Aggregator) LoadMore(ctx context.Context) Page {
	a.mu.Lock()
	if a.loading || !a.hasMore {
		page := a.snapshotLocked()
		a.mu.Unlock()
		return page
	}
	accounts := a.accounts
	target := a.loaded + a.pageSize
	a.loading = true
	a.mu.Unlock()

	perAccount, errMsg := a.fetchWindow(ctx, accounts, target)
	pool := mergeDedup(accounts, perAccount)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	// A deeper fetch can only grow the known pool
	if len(pool) >= len(a.pool) {
		a.pool = pool
	}
	if errMsg != "" {
		a.errMsg = errMsg
	}
	a.loaded = min(target, len(a.pool))
	a.hasMore = len(a.pool) > a.loaded
	return a.snapshotLocked()
}

// Refresh re-runs the initial load for the current account set and
// recomputes stats with the fresh data
func (a *Aggregator) Refresh(ctx context.Context) Page {
	a.mu.Lock()
	accounts := a.accounts
	a.statsKey = ""
	a.mu.Unlock()
	return a.Fetch(ctx, accounts)
}

// Stats returns the aggregate view for the current account set, or
// nil before the first load
func (a *Aggregator) Stats() *models.TransactionStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Aggregator) snapshotLocked() Page {
	window := a.pool
	if a.loaded < len(window) {
		window = window[:a.loaded]
	}
	out := make([]models.Transaction, len(window))
	copy(out, window)
	return Page{Transactions: out, HasMore: a.hasMore, Error: a.errMsg}
}

// fetchWindow fetches up to limit classified transactions for each
// account concurrently. A per-account failure is recorded and does
// not abort the remaining accounts; failures are joined with "; "
// in input order.
func (a *Aggregator) fetchWindow(ctx context.Context, accounts []string, limit int) (map[string][]models.Transaction, string) {
	pool := pond.NewPool(a.workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	var mu sync.Mutex
	perAccount := make(map[string][]models.Transaction, len(accounts))
	failures := make([]string, len(accounts))

	for i, account := range accounts {
		i, account := i, account
		group.Submit(func() {
			txs, err := a.fetchAccount(ctx, account, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = fmt.Sprintf("%s: %v", account, err)
				return
			}
			perAccount[account] = txs
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		a.logger.Warn("history fetch group error", zap.Error(err))
	}

	var parts []string
	for _, f := range failures {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return perAccount, strings.Join(parts, "; ")
}

func (a *Aggregator) fetchAccount(ctx context.Context, account string, limit int) ([]models.Transaction, error) {
	raw, err := a.caller.Call(ctx, hive.MethodGetAccountHistory, []any{account, -1, limit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	entries, err := hive.ParseHistory(raw)
	if err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(entries))
	for _, entry := range entries {
		if tx, ok := classify(entry); ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// mergeDedup flattens per-account results in input-account order,
// sorts by timestamp descending, then removes duplicate hashes
// keeping the first (most recent) occurrence. The flatten order
// makes ties and dedup winners deterministic across runs.
func mergeDedup(accounts []string, perAccount map[string][]models.Transaction) []models.Transaction {
	var merged []models.Transaction
	for _, account := range accounts {
		merged = append(merged, perAccount[account]...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(merged))
	out := merged[:0]
	for _, tx := range merged {
		if _, dup := seen[tx.Hash]; dup {
			continue
		}
		seen[tx.Hash] = struct{}{}
		out = append(out, tx)
	}
	return out
}
