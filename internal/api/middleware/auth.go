package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"geo-alert/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const operatorTokenKey = "operatorToken"

// JWTMAuth returns Echo's JWT middleware configured for operator tokens
// signed with jwtSecretKey (HS256). On success the operator ID and email
// are stored in the context as "operatorID" and "operatorEmail".
func JWTMAuth(jwtSecretKey string, logger *slog.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(jwtSecretKey),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    operatorTokenKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(models.OperatorClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get(operatorTokenKey).(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*models.OperatorClaims)
			if !ok {
				return
			}
			c.Set("operatorID", claims.OperatorID)
			c.Set("operatorEmail", claims.Email)
			logger.Debug("operator authenticated", "operator", claims.OperatorID, "path", c.Path())
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Warn("operator authentication failed", "path", c.Path(), "error", err)
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: authFailureMessage(err)})
		},
	})
}

// authFailureMessage maps a token error to the message shown to the client.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, echojwt.ErrJWTMissing):
		return "Missing or malformed JWT"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Token is malformed"
	default:
		return "Invalid or expired JWT"
	}
}
