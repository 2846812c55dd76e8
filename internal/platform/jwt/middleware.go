// Package jwtmw provides gin middleware that verifies Bearer tokens.
package jwtmw

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ContextUserID = "userID"

// AuthRequired returns a Gin middleware function that validates HS256 tokens
// signed with secret and puts the "sub" claim into the context as a string.
func AuthRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		if len(key) == 0 {
			// a missing JWT_SECRET is a server misconfiguration
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub := subject(token.Claims)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		c.Set(ContextUserID, sub)
		c.Next()
	}
}

// subject accepts both string and numeric "sub" claims.
func subject(claims jwt.Claims) string {
	mc, ok := claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	switch v := mc["sub"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64: // JSON numbers are decoded as float64
		if v < 0 || v != float64(int64(v)) {
			return ""
		}
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

// UserID returns the authenticated user set by AuthRequired.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
