package alerts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zkredit/vault/internal/idgen"
	"github.com/zkredit/vault/internal/validation"
)

// Handler provides HTTP endpoints for price alerts.
type Handler struct {
	store Store
}

// NewHandler creates a new price alert handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up price alert routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/price-alert", h.Create)
	r.GET("/price-alert", h.List)
	r.PATCH("/price-alert/:id/toggle", h.Toggle)
	r.DELETE("/price-alert/:id", h.Delete)
}

// CreateAlertRequest is the body for POST /api/price-alert.
type CreateAlertRequest struct {
	Email        string `json:"email"`
	CryptoSymbol string `json:"cryptoSymbol"`
	CryptoName   string `json:"cryptoName"`
	CurrentPrice string `json:"currentPrice"`
	Price        string `json:"price"`
	AlertType    string `json:"alertType"`
	Frequency    string `json:"frequency"`
}

// Create handles POST /api/price-alert
func (h *Handler) Create(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "request body must be valid JSON",
		})
		return
	}

	if req.AlertType == "" {
		req.AlertType = string(AlertAbove)
	}
	if req.Frequency == "" {
		req.Frequency = string(FrequencyOnce)
	}

	if errs := validation.Validate(
		validation.Required("email", req.Email),
		validation.ValidEmail("email", req.Email),
		validation.Required("cryptoSymbol", req.CryptoSymbol),
		validation.Required("price", req.Price),
		validation.OneOf("alertType", req.AlertType, string(AlertAbove), string(AlertBelow)),
		validation.OneOf("frequency", req.Frequency, string(FrequencyOnce), string(FrequencyDaily), string(FrequencyAlways)),
	); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": errs.Error(),
		})
		return
	}

	if target, err := strconv.ParseFloat(req.Price, 64); err != nil || target <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "price must be a positive number",
		})
		return
	}

	alert := &PriceAlert{
		ID:           idgen.WithPrefix("alert_"),
		Email:        req.Email,
		CryptoSymbol: req.CryptoSymbol,
		CryptoName:   req.CryptoName,
		CurrentPrice: req.CurrentPrice,
		Price:        req.Price,
		AlertType:    AlertType(req.AlertType),
		Frequency:    Frequency(req.Frequency),
		Active:       true,
		CreatedAt:    time.Now(),
	}

	if err := h.store.Create(c.Request.Context(), alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to create price alert",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Price alert created successfully",
		"alert":   alert,
	})
}

// List handles GET /api/price-alert?email=
//
// Always returns a JSON array, even when the user has no alerts.
func (h *Handler) List(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "email query parameter is required",
		})
		return
	}

	userAlerts, err := h.store.ListByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to list price alerts",
		})
		return
	}

	c.JSON(http.StatusOK, userAlerts)
}

// Toggle handles PATCH /api/price-alert/:id/toggle
func (h *Handler) Toggle(c *gin.Context) {
	id := c.Param("id")

	current, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.alertError(c, err)
		return
	}

	updated, err := h.store.SetActive(c.Request.Context(), id, !current.Active)
	if err != nil {
		h.alertError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/price-alert/:id
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.alertError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) alertError(c *gin.Context, err error) {
	if errors.Is(err, ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "price alert not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "price alert operation failed",
	})
}
