package auth

import (
	stderrors "errors"
	"fmt"
	"strings"

	"recipe_reel_go_backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userContextKey = "user"

// AuthUser is the identity attached to the request scope after a successful
// token check.
type AuthUser struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// Claims is the token payload issued by the identity provider: the subject
// is the user id, plus the email and role custom claims.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens against the shared signing secret and the
// configured issuer.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier fails when the secret is empty: running without one would
// accept nothing and hide a deployment mistake behind 401s.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.NewConfigError("JWT secret is not configured", nil)
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify parses and validates a raw token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, stderrors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware authenticates the request and stores the AuthUser in the
// gin context under "user".
func AuthMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthMissing, "Authorization header is required"))
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
			errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthInvalid, "Invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(bearerToken[1])
		if err != nil {
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthExpired, "Token has expired"))
			} else {
				errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthInvalid, "Invalid token"))
			}
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			errors.HandleError(c, errors.New401Error(errors.ErrorTypeAuthInvalid, "Invalid token subject"))
			c.Abort()
			return
		}

		c.Set(userContextKey, AuthUser{
			ID:    userID,
			Email: claims.Email,
			Role:  claims.Role,
		})
		c.Next()
	}
}

// CurrentUser pulls the authenticated identity out of the gin context.
func CurrentUser(c *gin.Context) (AuthUser, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return AuthUser{}, false
	}
	user, ok := value.(AuthUser)
	return user, ok
}
