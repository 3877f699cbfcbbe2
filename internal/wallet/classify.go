package wallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ety001/hive-social-api/internal/hive"
	"github.com/ety001/hive-social-api/internal/models"
	"github.com/ety001/hive-social-api/internal/transform"
)

// str extracts a string field from loosely-typed operation data
func str(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// amountOf parses a currency field like "1.234 HIVE" from operation
// data, defaulting to zero on malformed input
func amountOf(data map[string]any, key string) (decimal.Decimal, string) {
	value, symbol, err := transform.ParseAmount(str(data, key))
	if err != nil {
		return decimal.Zero, ""
	}
	return value, symbol
}

// parseTimestamp handles the node's bare timestamp format with an
// RFC3339 fallback; unparseable input yields the zero time so the
// entry sorts last instead of being dropped
func parseTimestamp(s string) time.Time {
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
	}
	return ts
}

// isVirtualTrx reports whether a trx_id is the all-zero placeholder
// the node uses for virtual operations
func isVirtualTrx(trxID string) bool {
	return strings.Trim(trxID, "0") == ""
}

// classify maps one raw account-history entry to a normalized
// transaction. Operation types outside the wallet ledger (votes,
// comments, witness plumbing) are skipped.
func classify(entry hive.RawHistoryEntry) (models.Transaction, bool) {
	tx := models.Transaction{
		ID:        fmt.Sprintf("%s-%d", entry.TrxID, entry.Index),
		Status:    models.StatusCompleted,
		Timestamp: parseTimestamp(entry.Timestamp),
		Hash:      entry.TrxID,
	}
	// Virtual operations share an all-zero trx_id; key them by
	// block and index so they do not collapse into one entry.
	if isVirtualTrx(entry.TrxID) {
		tx.Hash = fmt.Sprintf("%s-%d-%d", entry.TrxID, entry.Block, entry.Index)
	}

	data := entry.OpData

	switch entry.OpType {
	case "transfer":
		value, symbol := amountOf(data, "amount")
		tx.Type = models.TxTransfer
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "from")
		tx.To = str(data, "to")
		tx.Memo = str(data, "memo")
		tx.Description = fmt.Sprintf("Transfer from @%s to @%s", tx.From, tx.To)

	case "transfer_to_vesting":
		value, symbol := amountOf(data, "amount")
		tx.Type = models.TxPowerUp
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "from")
		tx.To = str(data, "to")
		tx.Description = fmt.Sprintf("Power up by @%s", tx.From)

	case "withdraw_vesting":
		value, symbol := amountOf(data, "vesting_shares")
		tx.Type = models.TxPowerDown
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "account")
		tx.Description = fmt.Sprintf("Power down by @%s", tx.From)

	case "delegate_vesting_shares":
		value, symbol := amountOf(data, "vesting_shares")
		tx.Type = models.TxDelegation
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "delegator")
		tx.To = str(data, "delegatee")
		tx.Description = fmt.Sprintf("Delegation from @%s to @%s", tx.From, tx.To)

	case "claim_reward_balance":
		tx.Type = models.TxReward
		tx.To = str(data, "account")
		value, symbol := amountOf(data, "reward_hive")
		if value.IsZero() {
			value, symbol = amountOf(data, "reward_hbd")
		}
		if value.IsZero() {
			value, symbol = amountOf(data, "reward_vests")
		}
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.Description = fmt.Sprintf("Rewards claimed by @%s", tx.To)

	case "convert":
		value, symbol := amountOf(data, "amount")
		tx.Type = models.TxConversion
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "owner")
		tx.Description = fmt.Sprintf("Conversion requested by @%s", tx.From)

	case "fill_convert_request":
		value, symbol := amountOf(data, "amount_out")
		tx.Type = models.TxConversionFilled
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.To = str(data, "owner")
		tx.Description = fmt.Sprintf("Conversion filled for @%s", tx.To)

	case "limit_order_create":
		value, symbol := amountOf(data, "amount_to_sell")
		tx.Type = models.TxOrderCreate
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "owner")
		tx.Description = fmt.Sprintf("Order created by @%s", tx.From)

	case "limit_order_cancel":
		tx.Type = models.TxOrderCancel
		tx.Amount = decimal.Zero.StringFixed(3)
		tx.From = str(data, "owner")
		tx.Description = fmt.Sprintf("Order cancelled by @%s", tx.From)

	case "fill_order":
		value, symbol := amountOf(data, "current_pays")
		tx.Type = models.TxOrderFilled
		tx.Amount = value.StringFixed(3)
		tx.Currency = symbol
		tx.From = str(data, "current_owner")
		tx.To = str(data, "open_owner")
		tx.Description = fmt.Sprintf("Order filled between @%s and @%s", tx.From, tx.To)

	case "custom_json", "custom":
		tx.Type = models.TxCustom
		tx.Amount = decimal.Zero.StringFixed(3)
		tx.Category = str(data, "id")
		tx.Description = fmt.Sprintf("Custom operation %s", tx.Category)

	default:
		return models.Transaction{}, false
	}

	return tx, true
}
