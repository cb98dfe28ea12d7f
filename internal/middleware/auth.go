package middleware

import (
	"errors"
	"net/http"
	"strings"

	pkgAuth "cardroom-service/pkg/auth"
	"cardroom-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "userID"
	ContextUserNameKey = "userName"
	ContextAdminIDKey  = "adminID"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := pkgAuth.ParseUserToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextUserIDKey, claims.SubjectID)
		c.Set(ContextUserNameKey, claims.Name)
		c.Next()
	}
}

func AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := pkgAuth.ParseAdminToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextAdminIDKey, claims.SubjectID)
		c.Next()
	}
}

// extractToken accepts a bearer header, or a token query parameter for browser websockets.
func extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); strings.TrimSpace(header) != "" {
		return extractBearerToken(header)
	}
	if q := strings.TrimSpace(c.Query("token")); q != "" {
		return q, nil
	}
	return "", errors.New("missing authorization header")
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func UserName(c *gin.Context) string {
	return c.GetString(ContextUserNameKey)
}
