package risk

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for risk analysis.
type Handler struct {
	analyzer *Analyzer
	store    Store
}

// NewHandler creates a new risk handler.
func NewHandler(analyzer *Analyzer, store Store) *Handler {
	return &Handler{analyzer: analyzer, store: store}
}

// RegisterRoutes sets up risk analysis routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transaction-risk", h.AnalyzeTransaction)
	r.GET("/risk/assessments", h.ListAssessments)
}

// AnalyzeRequest is the body for POST /v1/transaction-risk.
type AnalyzeRequest struct {
	Sender    string  `json:"sender" binding:"required"`
	Recipient string  `json:"recipient" binding:"required"`
	Value     float64 `json:"value"`
	Token     string  `json:"token"`
}

// AnalyzeTransaction handles POST /v1/transaction-risk
func (h *Handler) AnalyzeTransaction(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "sender and recipient are required",
		})
		return
	}

	if req.Value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "value must not be negative",
		})
		return
	}

	analysis := h.analyzer.Analyze(req.Sender, req.Recipient, req.Value)
	c.JSON(http.StatusOK, analysis)
}

// ListAssessments handles GET /v1/risk/assessments?wallet=&limit=
func (h *Handler) ListAssessments(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "wallet query parameter is required",
		})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	assessments, err := h.store.ListByWallet(c.Request.Context(), wallet, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"count":       len(assessments),
	})
}
