package ledger

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for wallet balances.
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a new ledger handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// RegisterRoutes sets up balance routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/balance", h.GetBalance)
	r.GET("/balance/history", h.GetHistory)
}

// GetBalance handles GET /v1/balance?wallet=
func (h *Handler) GetBalance(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "wallet query parameter is required",
		})
		return
	}

	bal, err := h.ledger.GetBalance(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load balance",
		})
		return
	}

	c.JSON(http.StatusOK, bal)
}

// GetHistory handles GET /v1/balance/history?wallet=&limit=
func (h *Handler) GetHistory(c *gin.Context) {
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

	entries, err := h.ledger.GetHistory(c.Request.Context(), wallet, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load balance history",
		})
		return
	}

	if entries == nil {
		entries = []*Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
