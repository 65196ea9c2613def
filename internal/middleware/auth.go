package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"anoa.com/skillquest/internal/entity"
	userRepo "anoa.com/skillquest/internal/modules/user/repository"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

// RequireAuth rejects requests without a valid bearer token with 401 and a sign-in redirect.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = m.authenticate(c)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return apperror.New(http.StatusUnauthorized, "authorization required", apperror.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return apperror.New(http.StatusUnauthorized, "invalid or expired token", apperror.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return apperror.New(http.StatusUnauthorized, "invalid token claims", apperror.ErrUnauthenticated)
	}

	c.Set(response.UserIDKey, claims.Subject)
	c.Set(response.TokenKey, tokenString)
	return nil
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Fallback to query parameter "token" (useful for WebSockets)
	return c.Query("token")
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(response.UserIDKey)
		if userID == "" {
			response.ResponseError(c, apperror.ErrUnauthenticated)
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.ResponseError(c, apperror.New(http.StatusUnauthorized, "user not found", apperror.ErrUnauthenticated))
			c.Abort()
			return
		}

		if user.Role.Name != entity.RoleAdmin {
			response.ResponseError(c, apperror.New(http.StatusForbidden, "admin access required", apperror.ErrForbidden))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
