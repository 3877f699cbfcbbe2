package wallet

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ety001/hive-social-api/internal/models"
	"github.com/ety001/hive-social-api/internal/transform"
)

// perAccountStats computes each account's aggregates over its own
// fetched history, in input-account order
func perAccountStats(accounts []string, perAccount map[string][]models.Transaction) []models.AccountStats {
	out := make([]models.AccountStats, 0, len(accounts))
	for _, account := range accounts {
		txs, ok := perAccount[account]
		if !ok {
			continue
		}

		stats := models.AccountStats{Account: account, Count: len(txs)}
		completed := 0
		for _, tx := range txs {
			if tx.Status == models.StatusCompleted {
				completed++
			}
			value, err := decimal.NewFromString(tx.Amount)
			if err != nil {
				continue
			}
			switch tx.Currency {
			case "HIVE":
				stats.VolumeHive = stats.VolumeHive.Add(value)
			case "HBD":
				stats.VolumeHBD = stats.VolumeHBD.Add(value)
			}
		}
		if stats.Count > 0 {
			stats.SuccessRate = float64(completed) / float64(stats.Count) * 100
		}
		out = append(out, stats)
	}
	return out
}

// mergeStats folds per-account stats into the account-set view:
// counts and volumes are summed, the success rate is weighted by
// each account's transaction count.
func mergeStats(perAccount []models.AccountStats) *models.TransactionStats {
	totalCount := 0
	volumeHive := decimal.Zero
	volumeHBD := decimal.Zero
	weightedRate := 0.0

	for _, stats := range perAccount {
		totalCount += stats.Count
		volumeHive = volumeHive.Add(stats.VolumeHive)
		volumeHBD = volumeHBD.Add(stats.VolumeHBD)
		weightedRate += stats.SuccessRate * float64(stats.Count)
	}

	rate := 0.0
	if totalCount > 0 {
		rate = weightedRate / float64(totalCount)
	}

	return &models.TransactionStats{
		Count:      totalCount,
		VolumeHive: transform.FormatAmount(volumeHive, "HIVE"),
		VolumeHBD:  transform.FormatAmount(volumeHBD, "HBD"),
		// Hive transfers carry no fee; the field exists for parity
		// with exchanges that report one.
		AverageFee:  transform.FormatAmount(decimal.Zero, "HIVE"),
		SuccessRate: fmt.Sprintf("%.1f%%", rate),
	}
}
