package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/api"
)

const (
	ctxCustomerID = "customer_id"
	ctxEmail      = "customer_email"
	ctxName       = "customer_name"
	ctxRole       = "customer_role"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg, Code: api.CodeUnauthorized})
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "Token is empty")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				unauthorized(c, "Token expired")
			case errors.Is(err, ErrMissingSubject):
				unauthorized(c, "Token has no customer")
			default:
				unauthorized(c, "Invalid or malformed token")
			}
			return
		}

		if claims.TokenType != tokenTypeAccess {
			unauthorized(c, "Access token required")
			return
		}

		c.Set(ctxCustomerID, claims.CustomerID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxName, claims.Name)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			unauthorized(c, "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			unauthorized(c, "Invalid role type")
			return
		}

		if roleStr != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions", Code: api.CodeForbidden})
			return
		}

		c.Next()
	}
}

func GetCustomerID(c *gin.Context) (string, bool) {
	return getString(c, ctxCustomerID)
}

func GetEmail(c *gin.Context) (string, bool) {
	return getString(c, ctxEmail)
}

func GetName(c *gin.Context) string {
	name, _ := getString(c, ctxName)
	return name
}

func IsAdmin(c *gin.Context) bool {
	role, ok := getString(c, ctxRole)
	return ok && role == RoleAdmin
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// SetIdentity stores a customer identity on the context the same way AuthMiddleware does.
// Handler tests use it in place of a signed token.
func SetIdentity(c *gin.Context, customerID, email, role string) {
	c.Set(ctxCustomerID, customerID)
	c.Set(ctxEmail, email)
	c.Set(ctxRole, role)
}
