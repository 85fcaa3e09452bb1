package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"geo-alert/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSecureToken creates a random, URL-safe string.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueOperatorToken signs an HS256 token accepted by the operator API.
func IssueOperatorToken(secret, operatorID, email string, ttl time.Duration) (string, error) {
	jti, err := GenerateSecureToken(16)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := &models.OperatorClaims{
		OperatorID: operatorID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("utils.IssueOperatorToken: %w", err)
	}
	return signed, nil
}
