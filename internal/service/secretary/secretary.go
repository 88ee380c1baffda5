// Package secretary provides methods for token issuance and credential hashing.
package secretary

import (
	"errors"
	"fmt"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelclaims"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Secretary defines object structure and its attributes.
type Secretary struct {
	key []byte
}

// NewSecretaryService initializes a secretary service.
func NewSecretaryService(c *config.SecretConfig) (*Secretary, error) {
	if c == nil || c.SecretKey == "" {
		return nil, errors.New("empty secret key was passed to secretary initializer")
	}
	return &Secretary{key: []byte(c.SecretKey)}, nil
}

// NewID generates a new unique identifier for a user or an agent.
func (s *Secretary) NewID() string {
	return uuid.New().String()
}

// HashPassword derives a salted hash for credential storage.
func (s *Secretary) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a stored hash against a presented password.
func (s *Secretary) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetTokenForUser issues a signed token carrying identity claims.
func (s *Secretary) GetTokenForUser(userID, email, agentID string, isAgent bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.MyCustomClaims{
		UserID:  userID,
		Email:   email,
		AgentID: agentID,
		IsAgent: isAgent,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(30 * time.Minute).Unix(),
		},
	})
	return token.SignedString(s.key)
}

// ValidateToken verifies a signed token and returns its claims.
func (s *Secretary) ValidateToken(accessToken string) (*modelclaims.MyCustomClaims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &modelclaims.MyCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*modelclaims.MyCustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid access token")
}
