package api

import (
	"crypto/subtle"
	"strconv"

	"recipe_reel_go_backend/internal/auth"
	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware runs the three-scope gate for its profile. Allowed
// requests get the user-scope window in X-RateLimit headers; denials answer
// with the scope's code and a Retry-After hint.
func RateLimitMiddleware(gate *services.RateLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthMissing, "Authorization is required"))
			c.Abort()
			return
		}

		headers, err := gate.Check(user.ID, c.ClientIP())
		if err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(headers.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(headers.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(headers.Reset))
		c.Next()
	}
}

// CostGateMiddleware checks the daily and hourly spend ceilings and records
// the request against them before the handler runs.
func CostGateMiddleware(usage *services.UsageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthMissing, "Authorization is required"))
			c.Abort()
			return
		}

		if err := usage.CheckLimits(user.ID); err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		usage.RecordUsage(user.ID)
		c.Next()
	}
}

// AdminKeyMiddleware guards operator endpoints with a shared header secret.
// An empty configured key disables the surface entirely.
func AdminKeyMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("x-admin-key")
		if adminKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			errors.HandleError(c, errors.New403Error(errors.ErrorTypeForbidden, "Invalid admin key"))
			c.Abort()
			return
		}
		c.Next()
	}
}
