package api

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextTraceIDKey  = "traceID"
)

// TraceHeader carries the request's trace ID in both directions.
const TraceHeader = "X-Request-ID"

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AccountLookup loads the account behind a token. service.AuthService satisfies it.
type AccountLookup interface {
	Me(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The token only names the caller; the account is re-read on every request so
// a lock, role change or deletion applies to tokens already issued.
func AuthMiddleware(jwtSecret string, accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		user, err := accounts.Me(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				abortWithError(c, http.StatusUnauthorized, "User not found")
				return
			}
			log.Printf("ERROR: account lookup for %s [%s]: %v", userID.Hex(), c.GetString(ContextTraceIDKey), err)
			abortWithError(c, http.StatusInternalServerError, "Failed to load user")
			return
		}
		if user.IsLocked {
			abortWithError(c, http.StatusForbidden, "Account is locked")
			return
		}
		if !user.IsActive {
			abortWithError(c, http.StatusForbidden, "Account is inactive")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserRoleKey, user.Role)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RequireCapability rejects callers whose role lacks capability.
// Must run AFTER AuthMiddleware.
func RequireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := getActor(c)
		if !ok {
			return
		}
		if !actor.Role.Can(capability) {
			abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: role '%s' does not have permission '%s'", actor.Role, capability))
			return
		}
		c.Next()
	}
}

// getActor reads the caller set by AuthMiddleware, aborting with 500 if it is missing.
func getActor(c *gin.Context) (service.Actor, bool) {
	idRaw, idOK := c.Get(ContextUserIDKey)
	roleRaw, roleOK := c.Get(ContextUserRoleKey)
	if !idOK || !roleOK {
		abortWithError(c, http.StatusInternalServerError, "User not found in context")
		return service.Actor{}, false
	}
	id, ok := idRaw.(primitive.ObjectID)
	role, ok2 := roleRaw.(domain.Role)
	if !ok || !ok2 {
		// This indicates a programming error (wrong type set in context)
		abortWithError(c, http.StatusInternalServerError, "Invalid user type in context")
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: role}, true
}

// TraceMiddleware tags every request with an ID, reusing the caller's when it sent one.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.NewString()
		}
		c.Set(ContextTraceIDKey, traceID)
		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

// CORSMiddleware allows browser calls from the configured origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+TraceHeader)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", TraceHeader+", Content-Disposition")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
