// File: recipe_reel_go_backend/internal/errors/errors.go

package errors

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorType is the stable error code surfaced to clients
type ErrorType string

const (
	// Input validation
	ErrorTypeURLMissing          ErrorType = "URL_MISSING"
	ErrorTypeInvalidLanguage     ErrorType = "INVALID_LANGUAGE"
	ErrorTypeInvalidMealType     ErrorType = "INVALID_MEAL_TYPE"
	ErrorTypeInvalidDietTypes    ErrorType = "INVALID_DIET_TYPES"
	ErrorTypeInvalidEquipment    ErrorType = "INVALID_EQUIPMENT"
	ErrorTypeInvalidIngredients  ErrorType = "INVALID_INGREDIENTS"
	ErrorTypePlatformUnsupported ErrorType = "PLATFORM_UNSUPPORTED"
	ErrorTypeNotRecipe           ErrorType = "NOT_RECIPE"

	// Authentication
	ErrorTypeAuthMissing ErrorType = "AUTH_MISSING"
	ErrorTypeAuthInvalid ErrorType = "AUTH_INVALID"
	ErrorTypeAuthExpired ErrorType = "AUTH_EXPIRED"

	// Policy denials
	ErrorTypePremiumRequired       ErrorType = "PREMIUM_REQUIRED"
	ErrorTypeForbidden             ErrorType = "FORBIDDEN"
	ErrorTypeAnalysisInProgress    ErrorType = "ANALYSIS_IN_PROGRESS"
	ErrorTypeRateLimited           ErrorType = "RATE_LIMITED"
	ErrorTypeUserBlocked           ErrorType = "USER_BLOCKED"
	ErrorTypeIPRateLimited         ErrorType = "IP_RATE_LIMITED"
	ErrorTypeIPBlocked             ErrorType = "IP_BLOCKED"
	ErrorTypeDailyLimitReached     ErrorType = "DAILY_LIMIT_REACHED"
	ErrorTypeHourlyLimitReached    ErrorType = "HOURLY_LIMIT_REACHED"
	ErrorTypeUserDailyLimitReached ErrorType = "USER_DAILY_LIMIT_REACHED"
	ErrorTypeServerOverloaded      ErrorType = "SERVER_OVERLOADED"

	// Server side
	ErrorTypeConfigError         ErrorType = "CONFIG_ERROR"
	ErrorTypeInternalServerError ErrorType = "INTERNAL_SERVER_ERROR"
)

// CustomError carries an error code, a localized user message and the HTTP
// status the admission layer should answer with. Details are merged into the
// response body; RetryAfter (seconds) becomes the Retry-After header.
type CustomError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	RetryAfter int
	Details    map[string]interface{}
	Internal   error
}

// Error implements the error interface
func (e *CustomError) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped internal error to errors.Is/As
func (e *CustomError) Unwrap() error {
	return e.Internal
}

// WithDetails attaches contextual fields to the response body
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// newError creates a new CustomError
func newError(errType ErrorType, message string, statusCode int, internal error) *CustomError {
	return &CustomError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// New400Error creates a new bad request error
func New400Error(errType ErrorType, message string) *CustomError {
	return newError(errType, message, http.StatusBadRequest, nil)
}

// New401Error creates a new authentication error
func New401Error(errType ErrorType, message string) *CustomError {
	return newError(errType, message, http.StatusUnauthorized, nil)
}

// New403Error creates a new forbidden error
func New403Error(errType ErrorType, message string) *CustomError {
	return newError(errType, message, http.StatusForbidden, nil)
}

// New429Error creates a new policy denial with a retry hint in seconds
func New429Error(errType ErrorType, message string, retryAfter int) *CustomError {
	e := newError(errType, message, http.StatusTooManyRequests, nil)
	e.RetryAfter = retryAfter
	return e
}

// New503Error signals that the whole service is over its global window
func New503Error(message string, retryAfter int) *CustomError {
	e := newError(ErrorTypeServerOverloaded, message, http.StatusServiceUnavailable, nil)
	e.RetryAfter = retryAfter
	return e
}

// New500Error creates a new internal server error
func New500Error(internal error) *CustomError {
	return newError(ErrorTypeInternalServerError, "An unexpected error occurred", http.StatusInternalServerError, internal)
}

// NewConfigError reports a misconfigured deployment (missing secret etc.)
func NewConfigError(message string, internal error) *CustomError {
	return newError(ErrorTypeConfigError, message, http.StatusInternalServerError, internal)
}

// HandleError translates an error into the JSON error envelope
func HandleError(c *gin.Context, err error) {
	var customErr *CustomError
	var ok bool

	if customErr, ok = err.(*CustomError); !ok {
		customErr = New500Error(err)
	}

	// Log internal server errors
	if customErr.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(customErr.Internal).
			Str("url", c.Request.URL.String()).
			Str("code", string(customErr.Type)).
			Msg("Internal Server Error")
	}

	if customErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(customErr.RetryAfter))
	}

	body := gin.H{
		"success": false,
		"error":   customErr.Type,
		"message": customErr.Message,
	}
	for k, v := range customErr.Details {
		body[k] = v
	}

	c.JSON(customErr.StatusCode, body)
}

// LogAndReturn500 logs an internal error and returns a 500 error
func LogAndReturn500(internal error) *CustomError {
	log.Error().Err(internal).Msg("Internal Server Error")
	return New500Error(internal)
}
