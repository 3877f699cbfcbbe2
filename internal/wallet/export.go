package wallet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ety001/hive-social-api/internal/models"
)

var csvHeader = []string{"ID", "Type", "Description", "Amount", "Currency", "Status", "Timestamp", "Hash", "From", "To"}

// WriteCSV renders transactions as a CSV document: one header line
// plus one row per transaction, RFC 4180 quoting
func WriteCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.ID,
			string(tx.Type),
			tx.Description,
			tx.Amount,
			tx.Currency,
			string(tx.Status),
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.Hash,
			tx.From,
			tx.To,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportEnvelope is the JSON export document
type ExportEnvelope struct {
	ExportedAt       time.Time            `json:"exportedAt"`
	Username         string               `json:"username"`
	TransactionCount int                  `json:"transactionCount"`
	Transactions     []models.Transaction `json:"transactions"`
}

// WriteJSON renders transactions as a JSON export document
func WriteJSON(w io.Writer, username string, txs []models.Transaction) error {
	if txs == nil {
		txs = []models.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportEnvelope{
		ExportedAt:       time.Now().UTC(),
		Username:         username,
		TransactionCount: len(txs),
		Transactions:     txs,
	})
}
