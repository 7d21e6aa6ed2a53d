package intent

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for intent prediction.
type Handler struct {
	predictor *Predictor
}

// NewHandler creates a new intent handler.
func NewHandler(predictor *Predictor) *Handler {
	return &Handler{predictor: predictor}
}

// RegisterRoutes sets up intent routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transaction-intent", h.Predict)
}

// PredictRequest is the body for POST /v1/transaction-intent.
type PredictRequest struct {
	Sender    string  `json:"sender" binding:"required"`
	Recipient string  `json:"recipient" binding:"required"`
	Value     float64 `json:"value"`
}

// Predict handles POST /v1/transaction-intent
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
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

	c.JSON(http.StatusOK, h.predictor.Predict(req.Sender, req.Recipient, req.Value))
}
