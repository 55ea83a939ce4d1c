package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/idgen"
	"github.com/fraudlens/fraudlens/internal/logging"
	"github.com/fraudlens/fraudlens/internal/model"
	"github.com/fraudlens/fraudlens/internal/risk"
	"github.com/fraudlens/fraudlens/internal/store"
)

// PredictResponse is the synchronous scoring reply.
type PredictResponse struct {
	RiskScore       float64  `json:"risk_score"`
	RiskLevel       string   `json:"risk_level"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// HealthResponse is the detailed health report.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) rootHandler(c *gin.Context) {
	resp := gin.H{
		"status":       "ok",
		"model_loaded": s.classifier.Loaded(),
	}
	if v := s.classifier.Version(); v != "" {
		resp["model_version"] = v
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) predictHandler(c *gin.Context) {
	logger := logging.L(c.Request.Context())

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Error("request body read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	tx, err := risk.ParseTransaction(raw)
	if err != nil {
		logger.Error("prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	assessment, err := s.svc.Score(c.Request.Context(), tx)
	if err != nil {
		if errors.Is(err, model.ErrNotLoaded) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model_unavailable"})
			return
		}
		logger.Error("prediction failed", "transactionId", tx.TransactionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Audit the inbound transaction; a storage hiccup never fails the reply.
	rec := store.FromRisk(tx, idgen.WithPrefix("txn_"), store.SourceHTTP, time.Now().UTC())
	if err := s.txStore.Record(c.Request.Context(), rec); err != nil {
		logger.Warn("transaction audit record failed", "transactionId", tx.TransactionID, "error", err)
	}

	c.JSON(http.StatusOK, PredictResponse{
		RiskScore:       assessment.Score,
		RiskLevel:       string(assessment.Level),
		RiskFactors:     assessment.Factors,
		Recommendations: assessment.Recommendations,
	})
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) listTransactionsHandler(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxListLimit)
	}

	txs, err := s.txStore.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("transaction list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.checks.CheckAll(c.Request.Context())

	checks := make(map[string]string, len(statuses))
	for _, st := range statuses {
		if st.Healthy {
			checks[st.Name] = "healthy"
		} else {
			checks[st.Name] = "unhealthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
