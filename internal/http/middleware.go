package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the Authorization header for customer endpoints.
// Two credential forms are accepted: the static gateway API token, or a JWT
// signed with the shared secret. The static token is compared in constant
// time.
func AuthMiddleware(apiToken, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			c.Abort()
			return
		}

		if !authenticate(c, tokenString, apiToken, jwtSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware attaches identity when a valid credential is
// presented but never rejects the request. Used on catalog endpoints that
// render both anonymous and signed-in views.
func OptionalAuthMiddleware(apiToken, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			authenticate(c, tokenString, apiToken, jwtSecret)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// authenticate checks the credential and, on success, records the caller
// identity on the context.
func authenticate(c *gin.Context, tokenString, apiToken, jwtSecret string) bool {
	if apiToken != "" && subtle.ConstantTimeCompare([]byte(tokenString), []byte(apiToken)) == 1 {
		c.Set("userID", "api-token")
		return true
	}

	if jwtSecret == "" {
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	// Prefer uid, fall back to the standard sub claim.
	if uid, ok := claims["uid"].(string); ok {
		c.Set("userID", uid)
	} else if sub, ok := claims["sub"].(string); ok {
		c.Set("userID", sub)
	}
	return true
}
