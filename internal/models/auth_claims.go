package models

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims identifies the on-call operator calling the monitor API.
type OperatorClaims struct {
	OperatorID string `json:"operatorID"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}
