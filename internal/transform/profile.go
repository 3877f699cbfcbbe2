package transform

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
)

// accountMetadata is the profile block inside an account's
// json_metadata / posting_json_metadata
type accountMetadata struct {
	Profile struct {
		Name     string `json:"name"`
		About    string `json:"about"`
		Website  string `json:"website"`
		Location string `json:"location"`
	} `json:"profile"`
}

func (t *Transformer) parseProfileMetadata(acct hive.RawAccount) accountMetadata {
	var meta accountMetadata
	// posting_json_metadata supersedes json_metadata when present
	for _, raw := range []json.RawMessage{acct.PostingJSONMetadata, acct.JSONMetadata} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, &meta); err == nil && meta.Profile.Name != "" {
			return meta
		}
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err == nil {
			if err := json.Unmarshal([]byte(encoded), &meta); err == nil && meta.Profile.Name != "" {
				return meta
			}
		}
	}
	return meta
}

// hivePower converts effective vesting shares (owned minus delegated
// plus received) into a display power value via the network-wide
// fund/shares ratio
func (t *Transformer) hivePower(acct hive.RawAccount, props *hive.RawGlobalProperties) string {
	owned, _, err1 := ParseAmount(acct.VestingShares)
	delegated, _, err2 := ParseAmount(acct.DelegatedVesting)
	received, _, err3 := ParseAmount(acct.ReceivedVesting)
	fund, _, err4 := ParseAmount(props.TotalVestingFundHive)
	shares, _, err5 := ParseAmount(props.TotalVestingShares)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			t.logger.Warn("unparseable vesting field", zap.String("account", acct.Name), zap.Error(err))
			return FormatAmount(decimal.Zero, "HP")
		}
	}
	if shares.IsZero() {
		return FormatAmount(decimal.Zero, "HP")
	}
	effective := owned.Sub(delegated).Add(received)
	return FormatAmount(effective.Mul(fund).Div(shares), "HP")
}

// VotingPowerAt applies mana regeneration to a stored voting power
// value: a full recharge takes one day, and the result is reported
// as a whole percentage capped at 100.
func VotingPowerAt(storedMana int, lastVote time.Time, now time.Time) int {
	mana := float64(storedMana)
	if !lastVote.IsZero() && now.After(lastVote) {
		elapsed := now.Sub(lastVote).Seconds()
		mana += elapsed * 10000.0 / 86400.0
	}
	if mana > 10000 {
		mana = 10000
	}
	pct := mana / 10000 * 100
	if pct > 100 {
		pct = 100
	}
	return int(math.Round(pct))
}

// Profile normalizes an account record against the current
// network-wide vesting totals
func (t *Transformer) Profile(acct hive.RawAccount, props *hive.RawGlobalProperties, follows *hive.RawFollowCount, now time.Time) models.UserProfile {
	meta := t.parseProfileMetadata(acct)

	displayName := meta.Profile.Name
	if displayName == "" {
		displayName = acct.Name
	}

	profile := models.UserProfile{
		Username:    acct.Name,
		DisplayName: displayName,
		About:       meta.Profile.About,
		Website:     meta.Profile.Website,
		Location:    meta.Profile.Location,
		Balance:     acct.Balance,
		HBDBalance:  acct.HBDBalance,
		HivePower:   t.hivePower(acct, props),
		VotingPower: VotingPowerAt(acct.VotingPower, t.parseTime(acct.LastVoteTime), now),
		Reputation:  Reputation(acct.Reputation),
		PostCount:   acct.PostCount,
	}
	if follows != nil {
		profile.Followers = follows.FollowerCount
		profile.Following = follows.FollowingCount
	}
	return profile
}
