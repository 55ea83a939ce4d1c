package risk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/traces"
)

// Classifier produces a fraud probability for an encoded feature vector.
// Implementations must be safe for concurrent use after construction.
type Classifier interface {
	// Score returns the probability in [0,1] that the encoded transaction
	// is fraudulent.
	Score(ctx context.Context, features []float64) (float64, error)
	// ExtensionNames lists the named features the model expects beyond the
	// seven base slots, in model input order.
	ExtensionNames() []string
	// Loaded reports whether a usable model is behind this classifier.
	Loaded() bool
}

// Service runs the scoring pipeline: feature extraction, classification,
// rule evaluation. One Service is built at startup and shared by every
// transport adapter; it holds no per-transaction state.
type Service struct {
	classifier Classifier
	extNames   []string
	logger     *slog.Logger
}

// NewService builds the scoring service around a classifier. The
// classifier's declared extension names are resolved once here; names the
// extractor cannot supply are reported at startup instead of silently
// encoding as zero on every call.
func NewService(classifier Classifier, logger *slog.Logger) *Service {
	extNames := classifier.ExtensionNames()
	for _, name := range extNames {
		if !supportedExtensions[name] {
			logger.Warn("model declares an unsupported extension feature, it will always encode as 0",
				"feature", name,
			)
		}
	}
	return &Service{
		classifier: classifier,
		extNames:   extNames,
		logger:     logger,
	}
}

// supportedExtensions names the extension features the extractor can
// populate. The base pipeline derives none; the map documents the
// validation point for models that declare extras.
var supportedExtensions = map[string]bool{}

// Ready reports whether the underlying classifier is loaded.
func (s *Service) Ready() bool {
	return s.classifier.Loaded()
}

// Score runs the full pipeline for one transaction and returns its
// assessment. It either produces a complete assessment or fails before
// producing one; there is no partial result. Repeated calls with the same
// transaction and classifier yield an identical assessment.
func (s *Service) Score(ctx context.Context, tx *Transaction) (*Assessment, error) {
	ctx, span := traces.StartSpan(ctx, "risk.Score", traces.TransactionID(tx.TransactionID))
	defer span.End()

	timer := prometheus.NewTimer(metrics.ScoringDuration)
	defer timer.ObserveDuration()

	feats, err := ExtractFeatures(tx)
	if err != nil {
		metrics.ScoringErrors.WithLabelValues("validation").Inc()
		return nil, err
	}

	score, err := s.classifier.Score(ctx, feats.Vector(s.extNames))
	if err != nil {
		metrics.ScoringErrors.WithLabelValues("classifier").Inc()
		return nil, fmt.Errorf("classifier: %w", err)
	}
	score = clamp01(score)

	assessment := Evaluate(score, feats)
	span.SetAttributes(traces.RiskScore(assessment.Score), traces.RiskLevel(string(assessment.Level)))
	metrics.AssessmentsTotal.WithLabelValues(string(assessment.Level)).Inc()

	s.logger.Info("transaction assessed",
		"transaction_id", assessment.TransactionID,
		"risk_score", assessment.Score,
		"risk_level", assessment.Level,
	)

	return assessment, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
