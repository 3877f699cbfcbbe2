package hive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Condenser and bridge namespace methods used by the query layers
const (
	MethodGetAccounts          = "condenser_api.get_accounts"
	MethodGetAccountHistory    = "condenser_api.get_account_history"
	MethodGetDynamicGlobal     = "condenser_api.get_dynamic_global_properties"
	MethodGetFollowCount       = "condenser_api.get_follow_count"
	MethodGetContent           = "condenser_api.get_content"
	MethodDiscussionsTrending  = "condenser_api.get_discussions_by_trending"
	MethodDiscussionsHot       = "condenser_api.get_discussions_by_hot"
	MethodDiscussionsCreated   = "condenser_api.get_discussions_by_created"
	MethodBridgeGetRankedPosts = "bridge.get_ranked_posts"
)

// RawVote is one entry of a post's active_votes list. Percent and
// rshares arrive as numbers or quoted numbers depending on the node.
type RawVote struct {
	Voter   string          `json:"voter"`
	Percent json.RawMessage `json:"percent"`
	Rshares json.RawMessage `json:"rshares"`
}

// RawPost is a loosely-typed discussion record from either the
// condenser or the bridge namespace. Fields a node omits stay zero.
type RawPost struct {
	Author             string          `json:"author"`
	Permlink           string          `json:"permlink"`
	Title              string          `json:"title"`
	Body               string          `json:"body"`
	Created            string          `json:"created"`
	Category           string          `json:"category"`
	JSONMetadata       json.RawMessage `json:"json_metadata"`
	ActiveVotes        []RawVote       `json:"active_votes"`
	NetVotes           *int            `json:"net_votes"`
	Children           int             `json:"children"`
	PendingPayoutValue string          `json:"pending_payout_value"`
	TotalPayoutValue   string          `json:"total_payout_value"`
	CuratorPayoutValue string          `json:"curator_payout_value"`
	AuthorReputation   json.RawMessage `json:"author_reputation"`
}

// RawAccount is a loosely-typed condenser account record
type RawAccount struct {
	Name                  string          `json:"name"`
	JSONMetadata          json.RawMessage `json:"json_metadata"`
	PostingJSONMetadata   json.RawMessage `json:"posting_json_metadata"`
	Balance               string          `json:"balance"`
	HBDBalance            string          `json:"hbd_balance"`
	VestingShares         string          `json:"vesting_shares"`
	DelegatedVesting      string          `json:"delegated_vesting_shares"`
	ReceivedVesting       string          `json:"received_vesting_shares"`
	VotingPower           int             `json:"voting_power"`
	LastVoteTime          string          `json:"last_vote_time"`
	PostCount             int             `json:"post_count"`
	Reputation            json.RawMessage `json:"reputation"`
}

// RawGlobalProperties carries the network-wide vesting totals needed
// to convert vesting shares into a display power value
type RawGlobalProperties struct {
	HeadBlockNumber      int64  `json:"head_block_number"`
	Time                 string `json:"time"`
	TotalVestingFundHive string `json:"total_vesting_fund_hive"`
	TotalVestingShares   string `json:"total_vesting_shares"`
}

// RawFollowCount is the condenser get_follow_count result
type RawFollowCount struct {
	Account        string `json:"account"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

// RawHistoryEntry is one account-history row, flattened from the
// wire format [index, {trx_id, block, timestamp, op: [type, data]}]
type RawHistoryEntry struct {
	Index     int64
	TrxID     string
	Block     int64
	Timestamp string
	OpType    string
	OpData    map[string]any
}

// ParsePosts decodes a discussion-listing result
func ParsePosts(raw json.RawMessage) ([]RawPost, error) {
	var posts []RawPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
	}
	return posts, nil
}

// ParseAccounts decodes a get_accounts result
func ParseAccounts(raw json.RawMessage) ([]RawAccount, error) {
	var accounts []RawAccount
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}
	return accounts, nil
}

// ParseGlobalProperties decodes a get_dynamic_global_properties result
func ParseGlobalProperties(raw json.RawMessage) (*RawGlobalProperties, error) {
	var props RawGlobalProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}
	return &props, nil
}

// ParseFollowCount decodes a get_follow_count result
func ParseFollowCount(raw json.RawMessage) (*RawFollowCount, error) {
	var fc RawFollowCount
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal follow count: %w", err)
	}
	return &fc, nil
}

// historyRowBody is the object half of an account-history row
type historyRowBody struct {
	TrxID     string            `json:"trx_id"`
	Block     int64             `json:"block"`
	Timestamp string            `json:"timestamp"`
	Op        []json.RawMessage `json:"op"`
}

// ParseHistory decodes a get_account_history result. Rows whose
// operation payload does not follow the [type, data] shape are
// skipped rather than failing the whole page.
func ParseHistory(raw json.RawMessage) ([]RawHistoryEntry, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	entries := make([]RawHistoryEntry, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			continue
		}

		var index int64
		if err := json.Unmarshal(row[0], &index); err != nil {
			continue
		}

		var body historyRowBody
		if err := json.Unmarshal(row[1], &body); err != nil {
			continue
		}
		if len(body.Op) != 2 {
			continue
		}

		var opType string
		if err := json.Unmarshal(body.Op[0], &opType); err != nil {
			continue
		}
		var opData map[string]any
		if err := json.Unmarshal(body.Op[1], &opData); err != nil {
			continue
		}

		entries = append(entries, RawHistoryEntry{
			Index:     index,
			TrxID:     body.TrxID,
			Block:     body.Block,
			Timestamp: body.Timestamp,
			OpType:    opType,
			OpData:    opData,
		})
	}
	return entries, nil
}

// ParseInt64 reads an integer that may arrive as a JSON number or a
// quoted numeric string
func ParseInt64(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// ParseFloat reads a float that may arrive as a JSON number or a
// quoted numeric string
func ParseFloat(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
