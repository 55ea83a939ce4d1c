// Package risk implements the transaction fraud scoring pipeline.
//
// A raw transaction is turned into a fixed-order feature vector, handed to
// a probability classifier, and the resulting score is translated into a
// categorical assessment (level, contributing factors, recommended actions).
// The pipeline is pure computation: delivery of the assessment is the
// transport adapters' job.
package risk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the categorical risk classification derived from a score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Score thresholds. Each band is closed on its lower bound.
const (
	HighThreshold   = 0.7
	MediumThreshold = 0.4
)

// LevelFromScore maps a fraud probability to its risk level.
func LevelFromScore(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Metadata carries optional client-supplied transaction context.
type Metadata struct {
	Device string `json:"device,omitempty"`
}

// Transaction is a single inbound payment record to be scored.
// It is constructed from one request or event and never mutated.
type Transaction struct {
	TransactionID   string   `json:"transactionId"`
	Amount          float64  `json:"amount"`
	TransactionTime string   `json:"transactionTime"`
	IsBlacklisted   bool     `json:"isBlacklisted"`
	IsFlagged       bool     `json:"isFlagged"`
	Location        string   `json:"location,omitempty"`
	Metadata        Metadata `json:"metadata,omitempty"`
}

// Assessment is the outcome of scoring one transaction.
type Assessment struct {
	TransactionID   string
	Score           float64
	Level           Level
	Factors         []string
	Recommendations []string
}

// ValidationError reports a missing or malformed transaction field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: field %q %s", e.Field, e.Reason)
}

// wireTransaction distinguishes absent required fields from zero values.
type wireTransaction struct {
	TransactionID   *string  `json:"transactionId"`
	Amount          *float64 `json:"amount"`
	TransactionTime *string  `json:"transactionTime"`
	IsBlacklisted   bool     `json:"isBlacklisted"`
	IsFlagged       bool     `json:"isFlagged"`
	Location        string   `json:"location"`
	Metadata        Metadata `json:"metadata"`
}

// ParseTransaction decodes and validates a raw transaction payload.
// Both transport adapters feed the pipeline through this single entry
// point so that required-field checks cannot drift between surfaces.
func ParseTransaction(raw []byte) (*Transaction, error) {
	var w wireTransaction
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "is not a valid transaction object"}
	}

	if w.TransactionID == nil || strings.TrimSpace(*w.TransactionID) == "" {
		return nil, &ValidationError{Field: "transactionId", Reason: "is required"}
	}
	if w.Amount == nil {
		return nil, &ValidationError{Field: "amount", Reason: "is required"}
	}
	if *w.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be non-negative"}
	}
	if w.TransactionTime == nil || *w.TransactionTime == "" {
		return nil, &ValidationError{Field: "transactionTime", Reason: "is required"}
	}

	return &Transaction{
		TransactionID:   *w.TransactionID,
		Amount:          *w.Amount,
		TransactionTime: *w.TransactionTime,
		IsBlacklisted:   w.IsBlacklisted,
		IsFlagged:       w.IsFlagged,
		Location:        w.Location,
		Metadata:        w.Metadata,
	}, nil
}
