// Package dashboard provides the aggregate wallet overview endpoint.
package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zkredit/vault/internal/creditscore"
	"github.com/zkredit/vault/internal/ledger"
	"github.com/zkredit/vault/internal/prices"
	"github.com/zkredit/vault/internal/transactions"
)

// recentLimit caps the transaction list included in the overview.
const recentLimit = 10

// Handler provides dashboard API endpoints.
type Handler struct {
	ledger        *ledger.Ledger
	credit        *creditscore.Service
	txStore       transactions.Store
	oracle        *prices.Oracle
	defaultWallet string
}

// NewHandler creates a new dashboard handler.
func NewHandler(l *ledger.Ledger, credit *creditscore.Service, txStore transactions.Store, oracle *prices.Oracle, defaultWallet string) *Handler {
	return &Handler{
		ledger:        l,
		credit:        credit,
		txStore:       txStore,
		oracle:        oracle,
		defaultWallet: defaultWallet,
	}
}

// RegisterRoutes sets up dashboard routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Overview)
}

// Overview returns the wallet's balance, credit score, recent
// transactions, and current market quotes in a single response.
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	wallet := strings.TrimSpace(c.Query("wallet"))
	if wallet == "" {
		wallet = h.defaultWallet
	}

	balance, err := h.ledger.GetBalance(ctx, wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load balance",
		})
		return
	}

	score, err := h.credit.Get(ctx, wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load credit score",
		})
		return
	}

	recent, err := h.txStore.List(ctx, recentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load transactions",
		})
		return
	}
	if recent == nil {
		recent = []*transactions.Transaction{}
	}

	quotes := h.oracle.Quotes(ctx, "bitcoin", "ethereum")

	c.JSON(http.StatusOK, gin.H{
		"wallet":       wallet,
		"balance":      balance,
		"creditScore":  score,
		"transactions": recent,
		"prices":       quotes,
	})
}
