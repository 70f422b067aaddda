package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ctxUserID = "userId"
	ctxAdmin  = "admin"

	deviceKeyHeader = "X-Device-Key"
)

var (
	errMissingAuth   = errors.New("missing Authorization header")
	errMalformedAuth = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuth
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", errMalformedAuth
	}
	return token, nil
}

// authenticate verifies the bearer token and stores the caller in the context.
func (h *Handler) authenticate(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := h.services.Authorization.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "remote", c.ClientIP(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxAdmin, claims.Admin)
	c.Next()
}

// requireAdmin lets only admin accounts through. It runs after authenticate.
func (h *Handler) requireAdmin(c *gin.Context) {
	if !c.GetBool(ctxAdmin) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
		return
	}
	c.Next()
}

// isDevice reports whether the request carries the field node key.
func (h *Handler) isDevice(c *gin.Context) bool {
	return validNodeKey(h.opts.NodeKey, c.GetHeader(deviceKeyHeader))
}

func validNodeKey(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
