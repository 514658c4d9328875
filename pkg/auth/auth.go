package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/benedict-erwin/detection-reporter/config"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// Permission actions, combined with a resource as "action:resource".
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

var (
	secret    []byte
	issuer    string
	expiry    time.Duration
	enabled   bool
	authMutex sync.RWMutex
)

// Claims carried by every issued token.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// InitAuth loads the signing secret from config. Auth can be disabled
// entirely for local analysis work.
func InitAuth() error {
	authConfig := config.Get().Auth

	authMutex.Lock()
	defer authMutex.Unlock()

	enabled = authConfig.Enabled
	if !enabled {
		logger.Info().Msg("Auth disabled in config")
		return nil
	}

	if authConfig.Secret == "" {
		return fmt.Errorf("auth enabled but secret is empty")
	}

	secret = []byte(authConfig.Secret)
	issuer = authConfig.Issuer
	expiry = time.Duration(authConfig.ExpiryMin) * time.Minute
	if expiry <= 0 {
		expiry = 8 * time.Hour
	}

	logger.Info().
		Str("issuer", issuer).
		Dur("expiry", expiry).
		Msg("Auth initialized")
	return nil
}

// Enabled reports whether token verification is active.
func Enabled() bool {
	authMutex.RLock()
	defer authMutex.RUnlock()
	return enabled
}

// IssueToken signs an HS256 token for the given subject and permission set.
func IssueToken(subject string, permissions []string) (string, error) {
	authMutex.RLock()
	defer authMutex.RUnlock()

	if !enabled {
		return "", fmt.Errorf("auth is disabled")
	}

	now := time.Now()
	claims := Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyJWT validates a token string and returns its claims.
func VerifyJWT(tokenString string) (*Claims, error) {
	authMutex.RLock()
	defer authMutex.RUnlock()

	if !enabled {
		return nil, fmt.Errorf("auth is disabled")
	}

	claims := &Claims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// HasPermission checks claims against a required permission.
// A wildcard "*" grants everything; "report:*" grants all report operations.
func HasPermission(claims *Claims, required string) bool {
	if claims == nil {
		return false
	}
	for _, p := range claims.Permissions {
		if p == required || p == "*" {
			return true
		}
		if strings.HasSuffix(p, ":*") &&
			strings.HasPrefix(required, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}
