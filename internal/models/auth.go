package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens. AccountID links the
// user to the employee (teachers) or student record they act as.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	AccountID string   `json:"account_id"`
	Name      string   `json:"name"`
	jwt.RegisteredClaims
}
