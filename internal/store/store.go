// Package store persists an audit trail of inbound transactions.
//
// Only the raw transactions are recorded; assessments are delivered to
// callers and never persisted. Recording is best effort and must never
// fail a scoring request.
package store

import (
	"context"
	"time"

	"github.com/fraudlens/fraudlens/internal/risk"
)

// Sources identify the transport surface a transaction arrived on.
const (
	SourceHTTP     = "http"
	SourceListener = "listener"
	SourceBridge   = "bridge"
)

// Transaction is one recorded inbound transaction.
type Transaction struct {
	ID              string    `json:"id"`
	TransactionID   string    `json:"transactionId"`
	Amount          float64   `json:"amount"`
	TransactionTime string    `json:"transactionTime"`
	Device          string    `json:"device,omitempty"`
	Location        string    `json:"location,omitempty"`
	Blacklisted     bool      `json:"isBlacklisted"`
	Flagged         bool      `json:"isFlagged"`
	Source          string    `json:"source"`
	ReceivedAt      time.Time `json:"receivedAt"`
}

// FromRisk builds an audit record from a validated transaction.
func FromRisk(tx *risk.Transaction, id, source string, receivedAt time.Time) *Transaction {
	return &Transaction{
		ID:              id,
		TransactionID:   tx.TransactionID,
		Amount:          tx.Amount,
		TransactionTime: tx.TransactionTime,
		Device:          tx.Metadata.Device,
		Location:        tx.Location,
		Blacklisted:     tx.IsBlacklisted,
		Flagged:         tx.IsFlagged,
		Source:          source,
		ReceivedAt:      receivedAt,
	}
}

// Store persists transaction audit records.
type Store interface {
	Record(ctx context.Context, tx *Transaction) error
	ListRecent(ctx context.Context, limit int) ([]*Transaction, error)
}
