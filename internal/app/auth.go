package app

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"scheduling-service/internal/apperrors"
)

// AuthMiddleware guards host endpoints. A bearer token is accepted when it is
// an HMAC-signed JWT or one of staticTokens. A JWT carrying a subject may only
// act on the host with that username.
func AuthMiddleware(jwtSecret string, staticTokens []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(staticTokens))
	for _, t := range staticTokens {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, t)
		}
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, apperrors.Unauthorized("missing or malformed authorization header"))
			return
		}

		if jwtSecret != "" {
			if subject, err := verifyJWT(token, jwtSecret); err == nil {
				if subject != "" && subject != c.Param("username") {
					abortAuth(c, apperrors.Forbidden("token does not belong to this user"))
					return
				}
				c.Next()
				return
			}
		}

		if slices.Contains(allowed, token) {
			c.Next()
			return
		}
		abortAuth(c, apperrors.Unauthorized("invalid token"))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func verifyJWT(token, secret string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func abortAuth(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, gin.H{"error": err.Message, "code": err.Code})
}
