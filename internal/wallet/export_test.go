package wallet

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ety001/hive-social-api/internal/models"
)

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			ID:          "t1-1",
			Type:        models.TxTransfer,
			Description: `Transfer from @alice to @bob, memo "thanks"`,
			Amount:      "1.500",
			Currency:    "HIVE",
			Status:      models.StatusCompleted,
			Timestamp:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Hash:        "t1",
			From:        "alice",
			To:          "bob",
		},
		{
			ID:          "t2-2",
			Type:        models.TxPowerUp,
			Description: "Power up by @alice",
			Amount:      "10.000",
			Currency:    "HIVE",
			Status:      models.StatusCompleted,
			Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Hash:        "t2",
			From:        "alice",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTransactions()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "ID,Type,Description,Amount,Currency,Status,Timestamp,Hash,From,To", lines[0])

	// Embedded quotes double per RFC 4180
	require.Contains(t, lines[1], `""thanks""`)
	require.Contains(t, lines[1], "2024-01-02T03:04:05Z")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
}

func TestWriteJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "alice", sampleTransactions()))

	var envelope ExportEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	require.Equal(t, "alice", envelope.Username)
	require.Equal(t, 2, envelope.TransactionCount)
	require.Len(t, envelope.Transactions, 2)
	require.False(t, envelope.ExportedAt.IsZero())
	require.Equal(t, "t1-1", envelope.Transactions[0].ID)
}

func TestWriteJSONNilSlice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "alice", nil))

	var envelope ExportEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	require.Zero(t, envelope.TransactionCount)
	require.NotNil(t, envelope.Transactions)
}
