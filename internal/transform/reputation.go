package transform

import (
	"encoding/json"
	"math"

	"github.com/ety001/hive-social-api/internal/hive"
)

// Reputation converts a raw on-chain reputation value (number or
// quoted number) into the human display score. Unparseable input
// yields the neutral score.
func Reputation(raw json.RawMessage) int {
	f, ok := hive.ParseFloat(raw)
	if !ok {
		return 25
	}
	return ReputationFromFloat(f)
}

// ReputationFromFloat is the canonical log-scaled reputation
// display formula. A fresh account (raw 0) scores exactly 25;
// magnitudes below 1e9 clamp to the neutral baseline; the sign of
// the raw value is preserved.
func ReputationFromFloat(raw float64) int {
	if raw == 0 {
		return 25
	}
	negative := raw < 0
	score := math.Log10(math.Abs(raw))
	score = math.Max(score-9, 0)
	if negative {
		score = -score
	}
	return int(math.Round(score*10 + 25))
}
