// Package relay implements the duplex event relay: a WebSocket listener
// serving request/reply scoring over a generic message envelope, and a
// bridge client that consumes transaction events from a peer process and
// publishes analysis events back.
package relay

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/fraudlens/fraudlens/internal/risk"
)

// Event names carried in the envelope's type field.
const (
	TypeTransaction = "transaction"
	TypeAnalysis    = "analysis"
	TypeError       = "error"
)

// ErrMalformedEnvelope is returned for non-JSON payloads or envelopes
// missing type or data.
var ErrMalformedEnvelope = errors.New("malformed relay envelope")

// Envelope is the generic relay message: a type tag plus an opaque payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEnvelope decodes and validates a raw relay message.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if env.Type == "" || len(env.Data) == 0 {
		return nil, ErrMalformedEnvelope
	}
	return &env, nil
}

// Analysis is the outbound assessment payload. Field names are the relay
// wire contract shared with peer processes.
type Analysis struct {
	TransactionID   string   `json:"transactionId"`
	RiskScore       float64  `json:"riskScore"`
	RiskLevel       string   `json:"riskLevel"`
	RiskFactors     []string `json:"riskFactors"`
	Recommendations []string `json:"recommendations"`
	Timestamp       string   `json:"timestamp"`
}

// NewAnalysis converts an assessment into its relay payload.
func NewAnalysis(a *risk.Assessment, at time.Time) *Analysis {
	return &Analysis{
		TransactionID:   a.TransactionID,
		RiskScore:       a.Score,
		RiskLevel:       string(a.Level),
		RiskFactors:     a.Factors,
		Recommendations: a.Recommendations,
		Timestamp:       at.UTC().Format(time.RFC3339),
	}
}

// ErrorData is the payload of an error envelope. Both relay surfaces
// surface failures as structured error events instead of dropping the
// message silently, so peers can tell a rejected transaction from a lost
// one.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in error envelopes.
const (
	CodeInvalidTransaction = "invalid_transaction"
	CodeModelUnavailable   = "model_unavailable"
	CodeScoringFailed      = "scoring_failed"
)

func marshalEnvelope(typ string, data interface{}) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	raw, err := json.Marshal(Envelope{Type: typ, Data: payload})
	if err != nil {
		return nil
	}
	return raw
}

// AnalysisEnvelope serializes an analysis event.
func AnalysisEnvelope(a *Analysis) []byte {
	return marshalEnvelope(TypeAnalysis, a)
}

// ErrorEnvelope serializes an error event.
func ErrorEnvelope(code, message string) []byte {
	return marshalEnvelope(TypeError, ErrorData{Code: code, Message: message})
}
