package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ContextOwnerID is the gin context key holding the authenticated owner id (int64).
const ContextOwnerID = "owner_id"

// fallbackOwnerID is used when unauthenticated fallback is enabled (demo only).
const fallbackOwnerID int64 = 1

// ErrInvalidToken is returned by resolvers for tokens that are malformed, expired or rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityResolver turns a bearer token into the owner id it belongs to.
type IdentityResolver interface {
	ResolveOwner(ctx context.Context, token string) (int64, error)
}

// JWTVerifier verifies HS256 tokens issued by the auth service with a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// ResolveOwner validates the signature and expiry and reads the owner id from
// the "userId" claim, falling back to "sub". Both may be numbers or numeric strings.
func (v *JWTVerifier) ResolveOwner(_ context.Context, tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	for _, key := range []string{"userId", "sub"} {
		if id, ok := ownerIDFromClaim(claims[key]); ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no owner id claim", ErrInvalidToken)
}

func ownerIDFromClaim(v any) (int64, bool) {
	switch id := v.(type) {
	case float64: // JWT numbers are decoded as float64
		if id > 0 && id == float64(int64(id)) {
			return int64(id), true
		}
	case string:
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// AuthUser represents the user info returned from auth service
type AuthUser struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

// AuthClient handles communication with the auth service
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient creates a new auth client
func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetMe retrieves user info from auth service using the token
func (c *AuthClient) GetMe(ctx context.Context, token string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("auth service error: %d - %s", resp.StatusCode, string(body))
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &user, nil
}

// ResolveOwner introspects the token against the auth service.
func (c *AuthClient) ResolveOwner(ctx context.Context, token string) (int64, error) {
	user, err := c.GetMe(ctx, token)
	if err != nil {
		return 0, err
	}
	id, err := user.ID.Int64()
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: auth service returned id %q", ErrInvalidToken, user.ID)
	}
	return id, nil
}

// OwnerAuth resolves the bearer token into an owner id stored under ContextOwnerID.
// When allowUnauthenticatedFallback is true (demo mode), missing/invalid tokens fall back to owner 1.
// When false (default), returns 401 for missing or invalid tokens.
func OwnerAuth(resolver IdentityResolver, logger *zap.Logger, allowUnauthenticatedFallback bool) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	reject := func(c *gin.Context, message string) {
		if allowUnauthenticatedFallback {
			c.Set(ContextOwnerID, fallbackOwnerID)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, "Authentication required")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			reject(c, "Invalid authorization header")
			return
		}

		ownerID, err := resolver.ResolveOwner(c.Request.Context(), token)
		if err != nil {
			logger.Debug("Auth validation failed", zap.Error(err))
			reject(c, "Invalid or expired token")
			return
		}

		c.Set(ContextOwnerID, ownerID)
		c.Next()
	}
}

// bearerToken extracts the token of "Bearer <token>". The scheme name is
// case-insensitive (RFC 6750).
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// OwnerIDFromContext returns the owner id set by OwnerAuth.
func OwnerIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextOwnerID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
