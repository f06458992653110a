package devapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const ctxUsername = "username"

// bearerAuth validates the HS256 bearer token and stores its username in
// the echo context.
func bearerAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "missing authorization header"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid authorization header"})
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !tkn.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			}

			username, _ := claims[ctxUsername].(string)
			if username == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token missing username"})
			}
			c.Set(ctxUsername, username)

			return next(c)
		}
	}
}

func issueToken(secret []byte, username string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		ctxUsername: username,
		"exp":       time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func currentUser(c echo.Context) string {
	u, _ := c.Get(ctxUsername).(string)
	return u
}
