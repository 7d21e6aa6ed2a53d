package transactions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zkredit/vault/internal/pagination"
)

// Handler provides HTTP endpoints for the transaction list.
type Handler struct {
	factory *Factory
	store   Store
}

// NewHandler creates a new transactions handler.
func NewHandler(factory *Factory, store Store) *Handler {
	return &Handler{factory: factory, store: store}
}

// RegisterRoutes sets up transaction routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transactions", h.Create)
	r.GET("/transactions", h.List)
	r.DELETE("/transactions", h.Clear)
	r.POST("/transactions/seed", h.Seed)
}

// CreateTransactionRequest is the body for POST /v1/transactions.
type CreateTransactionRequest struct {
	Type        string  `json:"type" binding:"required"`
	Amount      float64 `json:"amount"`
	Token       string  `json:"token"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
}

// Create handles POST /v1/transactions
func (h *Handler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "type is required",
		})
		return
	}

	if Type(req.Type) == TypeSend && req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "address is required for send transactions",
		})
		return
	}

	tx, err := h.factory.Create(c.Request.Context(), CreateRequest{
		Type:        Type(req.Type),
		Amount:      req.Amount,
		Token:       req.Token,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_type",
				"message": "type must be one of send, receive, swap, contract",
			})
		case errors.Is(err, ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_amount",
				"message": "amount must be a finite non-negative number",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "failed to create transaction",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// List handles GET /v1/transactions?limit=
func (h *Handler) List(c *gin.Context) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	cur, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "cursor is not valid",
		})
		return
	}

	// Fetch one extra row to know whether another page exists.
	txs, err := h.store.ListBefore(c.Request.Context(), cur, limit+1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to list transactions",
		})
		return
	}

	txs, nextCursor, hasMore := pagination.ComputePage(txs, limit, func(tx *Transaction) (time.Time, string) {
		return tx.CreatedAt, tx.ID
	})

	if txs == nil {
		txs = []*Transaction{}
	}
	resp := gin.H{
		"transactions": txs,
		"count":        len(txs),
	}
	if hasMore {
		resp["nextCursor"] = nextCursor
	}
	c.JSON(http.StatusOK, resp)
}

// Clear handles DELETE /v1/transactions
func (h *Handler) Clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to clear transactions",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// Seed handles POST /v1/transactions/seed
func (h *Handler) Seed(c *gin.Context) {
	txs, err := h.factory.SeedDemo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to seed transactions",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transactions": txs,
		"count":        len(txs),
	})
}
