// Package modelclaims provides types for token authorization.

package modelclaims

import "github.com/golang-jwt/jwt"

type MyCustomClaims struct {
	UserID  string `json:"userID"`
	Email   string `json:"email"`
	AgentID string `json:"agentID,omitempty"`
	IsAgent bool   `json:"isAgent,omitempty"`
	jwt.StandardClaims
}
