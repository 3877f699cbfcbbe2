package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a wallet-relevant blockchain operation
type TransactionType string

const (
	TxTransfer         TransactionType = "transfer"
	TxPowerUp          TransactionType = "power_up"
	TxPowerDown        TransactionType = "power_down"
	TxDelegation       TransactionType = "delegation"
	TxReward           TransactionType = "reward"
	TxConversion       TransactionType = "conversion"
	TxConversionFilled TransactionType = "conversion_filled"
	TxOrderCreate      TransactionType = "order_create"
	TxOrderCancel      TransactionType = "order_cancel"
	TxOrderFilled      TransactionType = "order_filled"
	TxCustom           TransactionType = "custom"
)

// TransactionStatus is the settlement state of a transaction
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is a normalized ledger entry derived from a raw
// account-history operation. Hash is the dedup key: no two entries
// in an aggregated result set share a hash.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Hash        string            `json:"hash"`
	From        string            `json:"from,omitempty"`
	To          string            `json:"to,omitempty"`
	Category    string            `json:"category,omitempty"`
	Memo        string            `json:"memo,omitempty"`
}

// AccountStats are per-account aggregates computed over one
// account's fetched history. Volumes stay as decimals so the
// account-set merge does not round twice.
type AccountStats struct {
	Account     string          `json:"account"`
	Count       int             `json:"count"`
	VolumeHive  decimal.Decimal `json:"volume_hive"`
	VolumeHBD   decimal.Decimal `json:"volume_hbd"`
	SuccessRate float64         `json:"success_rate"` // percentage 0..100
}

// TransactionStats is the aggregate view over a whole account set.
// Computed once per distinct account set; pagination does not
// recompute it.
type TransactionStats struct {
	Count       int    `json:"count"`
	VolumeHive  string `json:"volume_hive"`
	VolumeHBD   string `json:"volume_hbd"`
	AverageFee  string `json:"average_fee"`
	SuccessRate string `json:"success_rate"` // e.g. "99.2%"
}
