package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fraudlens/fraudlens/internal/idgen"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/model"
	"github.com/fraudlens/fraudlens/internal/risk"
	"github.com/fraudlens/fraudlens/internal/store"
	"github.com/fraudlens/fraudlens/internal/traces"
)

// Scorer runs the scoring pipeline for one transaction.
type Scorer interface {
	Score(ctx context.Context, tx *risk.Transaction) (*risk.Assessment, error)
}

// Handler turns inbound relay messages into outbound replies. It is shared
// by the listener and the bridge so both surfaces translate envelopes,
// errors, and audit records identically.
type Handler struct {
	scorer  Scorer
	txStore store.Store
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a relay message handler.
func NewHandler(scorer Scorer, txStore store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		scorer:  scorer,
		txStore: txStore,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleMessage processes one raw relay message and returns the serialized
// reply envelope, or nil when the message produces no reply (malformed
// envelopes and unknown event types are logged and skipped; the connection
// stays usable).
func (h *Handler) HandleMessage(ctx context.Context, surface string, raw []byte) []byte {
	env, err := ParseEnvelope(raw)
	if err != nil {
		h.logger.Warn("dropping malformed relay envelope", "surface", surface, "size", len(raw))
		metrics.RelayEventsTotal.WithLabelValues(surface, "in", "malformed").Inc()
		return nil
	}

	if env.Type != TypeTransaction {
		h.logger.Debug("ignoring relay event", "surface", surface, "type", env.Type)
		metrics.RelayEventsTotal.WithLabelValues(surface, "in", "ignored").Inc()
		return nil
	}

	ctx, span := traces.StartSpan(ctx, "relay.HandleMessage", traces.Surface(surface))
	defer span.End()

	tx, err := risk.ParseTransaction(env.Data)
	if err != nil {
		h.logger.Warn("rejecting invalid relay transaction", "surface", surface, "error", err)
		metrics.RelayEventsTotal.WithLabelValues(surface, "in", "invalid").Inc()
		return ErrorEnvelope(CodeInvalidTransaction, "Transaction failed validation")
	}

	assessment, err := h.scorer.Score(ctx, tx)
	if err != nil {
		return h.scoringErrorReply(surface, tx.TransactionID, err)
	}

	h.record(ctx, surface, tx)
	metrics.RelayEventsTotal.WithLabelValues(surface, "in", "scored").Inc()

	return AnalysisEnvelope(NewAnalysis(assessment, h.now()))
}

func (h *Handler) scoringErrorReply(surface, transactionID string, err error) []byte {
	metrics.RelayEventsTotal.WithLabelValues(surface, "in", "failed").Inc()

	if errors.Is(err, model.ErrNotLoaded) {
		h.logger.Error("relay scoring unavailable", "surface", surface, "transaction_id", transactionID)
		return ErrorEnvelope(CodeModelUnavailable, "Model not loaded")
	}

	var verr *risk.ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("rejecting invalid relay transaction",
			"surface", surface, "transaction_id", transactionID, "error", err)
		return ErrorEnvelope(CodeInvalidTransaction, "Transaction failed validation")
	}

	h.logger.Error("relay scoring failed",
		"surface", surface, "transaction_id", transactionID, "error", err)
	return ErrorEnvelope(CodeScoringFailed, "Scoring failed")
}

// record appends the transaction to the audit trail. Failures are logged
// and never propagated; the assessment has already been produced.
func (h *Handler) record(ctx context.Context, surface string, tx *risk.Transaction) {
	if h.txStore == nil {
		return
	}
	source := store.SourceListener
	if surface == SurfaceBridge {
		source = store.SourceBridge
	}
	rec := store.FromRisk(tx, idgen.WithPrefix("txn_"), source, h.now())
	if err := h.txStore.Record(ctx, rec); err != nil {
		h.logger.Warn("failed to record relay transaction",
			"transaction_id", tx.TransactionID, "error", err)
	}
}
