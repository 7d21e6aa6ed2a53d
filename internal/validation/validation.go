// Package validation provides input validation helpers for the Vault API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 10000

var (
	// ethAddressRegex validates canonical Ethereum addresses
	ethAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	// hexRegex validates hex strings
	hexRegex = regexp.MustCompile(`^(0x)?[a-fA-F0-9]+$`)
	// emailRegex is a light sanity check, not a full RFC 5322 parser
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidEthAddress checks if a string is a canonical Ethereum address.
// Transaction recipients are accepted free-form; this is for wallet
// identifiers where the caller claims a real address.
func IsValidEthAddress(addr string) bool {
	return ethAddressRegex.MatchString(addr)
}

// IsValidHex checks if a string is valid hex
func IsValidHex(s string) bool {
	return hexRegex.MatchString(s)
}

// IsValidEmail checks if a string looks like an email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// SanitizeAddress normalizes a wallet address
func SanitizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.ToLower(addr)

	// Ensure 0x prefix
	if !strings.HasPrefix(addr, "0x") && len(addr) == 40 {
		addr = "0x" + addr
	}

	return addr
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidEmail checks if a field is a plausible email address
func ValidEmail(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidEmail(value) {
			return &ValidationError{Field: field, Message: "must be a valid email address"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// WalletParamMiddleware validates the :wallet URL parameter on routes that
// use it. Apply to route groups that include :wallet params to reject
// malformed addresses early.
func WalletParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.Param("wallet")
		if addr != "" && !IsValidEthAddress(addr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_wallet",
				"message": "wallet must be a valid Ethereum address (0x + 40 hex chars)",
			})
			return
		}
		c.Next()
	}
}

// PositiveAmount checks if a numeric field is strictly positive
func PositiveAmount(field string, value float64) func() *ValidationError {
	return func() *ValidationError {
		if value <= 0 {
			return &ValidationError{Field: field, Message: "must be greater than zero"}
		}
		return nil
	}
}

// OneOf checks that a field takes one of the allowed values
func OneOf(field, value string, allowed ...string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return &ValidationError{Field: field, Message: "must be one of: " + strings.Join(allowed, ", ")}
	}
}
