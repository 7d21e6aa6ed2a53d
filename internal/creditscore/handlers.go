package creditscore

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// minWalletLen rejects obviously truncated addresses before hitting the
// provider.
const minWalletLen = 10

// Handler provides HTTP endpoints for credit scores.
type Handler struct {
	service *Service
}

// NewHandler creates a new credit score handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up credit score routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/credit-score", h.GetScore)
	r.DELETE("/credit-score", h.ResetScore)
	r.GET("/wallet-analysis", h.AnalyzeWallet)
}

func walletParam(c *gin.Context) (string, bool) {
	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "wallet query parameter is required",
		})
		return "", false
	}
	if len(wallet) < minWalletLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_wallet",
			"message": "wallet address is too short",
		})
		return "", false
	}
	return wallet, true
}

// GetScore handles GET /v1/credit-score?wallet=
func (h *Handler) GetScore(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	score, err := h.service.Get(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load credit score",
		})
		return
	}

	c.JSON(http.StatusOK, score)
}

// ResetScore handles DELETE /v1/credit-score?wallet=
//
// The cached snapshot is dropped so the next read starts fresh from the
// provider.
func (h *Handler) ResetScore(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	if err := h.service.Reset(c.Request.Context(), wallet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to reset credit score",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset", "wallet": wallet})
}

// AnalyzeWallet handles GET /v1/wallet-analysis?wallet=
func (h *Handler) AnalyzeWallet(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	analysis, err := h.service.AnalyzeWallet(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to analyze wallet",
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}
