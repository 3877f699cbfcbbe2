package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ety001/hive-social-api/internal/models"
)

// historyEntry builds one wire-format account-history row
type historyEntry struct {
	index  int
	trxID  string
	block  int
	ts     string
	from   string
	to     string
	amount string
}

func historyJSON(t *testing.T, entries []historyEntry) json.RawMessage {
	t.Helper()
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, fmt.Sprintf(
			`[%d,{"trx_id":%q,"block":%d,"timestamp":%q,"op":["transfer",{"from":%q,"to":%q,"amount":%q}]}]`,
			e.index, e.trxID, e.block, e.ts, e.from, e.to, e.amount))
	}
	out := "["
	for i, r := range rows {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return json.RawMessage(out + "]")
}

// mockCaller serves canned per-account histories
type mockCaller struct {
	histories map[string]json.RawMessage
	errs      map[string]error
}

func (m *mockCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	account := params.([]any)[0].(string)
	if err, ok := m.errs[account]; ok {
		return nil, err
	}
	history, ok := m.histories[account]
	if !ok {
		return json.RawMessage(`[]`), nil
	}
	return history, nil
}

func TestFetchMergesSortsAndDedups(t *testing.T) {
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, []historyEntry{
			{1, "shared1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
			{2, "alice2", 101, "2024-01-03T00:00:00", "alice", "carol", "2.000 HIVE"},
		}),
		"bob": historyJSON(t, []historyEntry{
			{9, "shared1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
			{10, "bob2", 102, "2024-01-02T00:00:00", "bob", "dave", "3.000 HIVE"},
		}),
	}}
	agg := NewAggregator(caller, nil, 10, 2)

	page := agg.Fetch(context.Background(), []string{"alice", "bob"})
	require.Empty(t, page.Error)
	require.False(t, page.HasMore)
	require.Len(t, page.Transactions, 3)

	// Newest first, the shared transfer appears once
	require.Equal(t, "alice2-2", page.Transactions[0].ID)
	require.Equal(t, "bob2-10", page.Transactions[1].ID)
	require.Equal(t, "shared1", page.Transactions[2].Hash)
}

func TestFetchDedupIsIdempotent(t *testing.T) {
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, []historyEntry{
			{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
		}),
	}}
	agg := NewAggregator(caller, nil, 10, 2)

	first := agg.Fetch(context.Background(), []string{"alice"})
	second := agg.Fetch(context.Background(), []string{"alice"})
	require.Equal(t, first.Transactions, second.Transactions)
}

func TestFetchPagination(t *testing.T) {
	entries := make([]historyEntry, 5)
	for i := range entries {
		entries[i] = historyEntry{
			index: i, trxID: fmt.Sprintf("t%d", i), block: 100 + i,
			ts:   fmt.Sprintf("2024-01-0%dT00:00:00", i+1),
			from: "alice", to: "bob", amount: "1.000 HIVE",
		}
	}
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, entries),
	}}
	agg := NewAggregator(caller, nil, 2, 2)

	page := agg.Fetch(context.Background(), []string{"alice"})
	require.Len(t, page.Transactions, 2)
	require.True(t, page.HasMore)

	page = agg.LoadMore(context.Background())
	require.Len(t, page.Transactions, 4)
	require.True(t, page.HasMore)

	page = agg.LoadMore(context.Background())
	require.Len(t, page.Transactions, 5)
	require.False(t, page.HasMore)

	// Nothing left: LoadMore is a no-op
	page = agg.LoadMore(context.Background())
	require.Len(t, page.Transactions, 5)
	require.False(t, page.HasMore)
}

func TestFetchPartialFailure(t *testing.T) {
	caller := &mockCaller{
		histories: map[string]json.RawMessage{
			"alice": historyJSON(t, []historyEntry{
				{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
			}),
		},
		errs: map[string]error{
			"broken1": fmt.Errorf("node said no"),
			"broken2": fmt.Errorf("timeout"),
		},
	}
	agg := NewAggregator(caller, nil, 10, 2)

	page := agg.Fetch(context.Background(), []string{"broken1", "alice", "broken2"})
	require.Len(t, page.Transactions, 1)
	// Failures accumulate in input order next to the partial data
	require.Contains(t, page.Error, "broken1: ")
	require.Contains(t, page.Error, "broken2: ")
	require.Less(t,
		strings.Index(page.Error, "broken1"),
		strings.Index(page.Error, "broken2"))
}

func TestFetchEmptyAccountsResets(t *testing.T) {
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, []historyEntry{
			{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
		}),
	}}
	agg := NewAggregator(caller, nil, 10, 2)

	page := agg.Fetch(context.Background(), []string{"alice"})
	require.Len(t, page.Transactions, 1)
	require.NotNil(t, agg.Stats())

	page = agg.Fetch(context.Background(), []string{"  "})
	require.Empty(t, page.Transactions)
	require.Empty(t, page.Error)
	require.False(t, page.HasMore)
	require.Nil(t, agg.Stats())
}

func TestStatsValues(t *testing.T) {
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, []historyEntry{
			{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
			{2, "t2", 101, "2024-01-02T00:00:00", "alice", "bob", "2.000 HIVE"},
			{3, "t3", 102, "2024-01-03T00:00:00", "alice", "bob", "3.000 HBD"},
		}),
	}}
	agg := NewAggregator(caller, nil, 10, 2)

	agg.Fetch(context.Background(), []string{"alice"})
	stats := agg.Stats()
	require.NotNil(t, stats)
	require.Equal(t, 3, stats.Count)
	require.Equal(t, "3.000 HIVE", stats.VolumeHive)
	require.Equal(t, "3.000 HBD", stats.VolumeHBD)
	require.Equal(t, "100.0%", stats.SuccessRate)
	require.Equal(t, "0.000 HIVE", stats.AverageFee)
}

func TestStatsRecomputedOnlyOnRefresh(t *testing.T) {
	caller := &mockCaller{histories: map[string]json.RawMessage{
		"alice": historyJSON(t, []historyEntry{
			{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
		}),
	}}
	agg := NewAggregator(caller, nil, 10, 2)

	agg.Fetch(context.Background(), []string{"alice"})
	require.Equal(t, 1, agg.Stats().Count)

	// New history lands on the node
	caller.histories["alice"] = historyJSON(t, []historyEntry{
		{1, "t1", 100, "2024-01-01T00:00:00", "alice", "bob", "1.000 HIVE"},
		{2, "t2", 101, "2024-01-02T00:00:00", "alice", "bob", "2.000 HIVE"},
	})

	// Re-fetching the same account set keeps the computed stats
	agg.Fetch(context.Background(), []string{"alice"})
	require.Equal(t, 1, agg.Stats().Count)

	// Refresh recomputes against the fresh data
	page := agg.Refresh(context.Background())
	require.Len(t, page.Transactions, 2)
	require.Equal(t, 2, agg.Stats().Count)
}

func TestStatsWeightedSuccessRate(t *testing.T) {
	stats := mergeStats([]models.AccountStats{
		{Account: "a", Count: 3, SuccessRate: 100},
		{Account: "b", Count: 1, SuccessRate: 0},
	})
	require.Equal(t, 4, stats.Count)
	require.Equal(t, "75.0%", stats.SuccessRate)
}
