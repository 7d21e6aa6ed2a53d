package prices

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for prices.
type Handler struct {
	oracle *Oracle
}

// NewHandler creates a new prices handler.
func NewHandler(oracle *Oracle) *Handler {
	return &Handler{oracle: oracle}
}

// RegisterRoutes sets up price routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/prices", h.GetPrices)
}

// GetPrices handles GET /v1/prices?ids=bitcoin,ethereum
func (h *Handler) GetPrices(c *gin.Context) {
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(strings.ToLower(id)); id != "" {
				ids = append(ids, id)
			}
		}
	}

	quotes := h.oracle.Quotes(c.Request.Context(), ids...)
	c.JSON(http.StatusOK, quotes)
}
