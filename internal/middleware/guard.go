package middleware

import (
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bizcards/internal/auth"
	apperrors "bizcards/internal/errors"
)

// ClaimsKey is the echo context key holding the verified *auth.Claims.
const ClaimsKey = "claims"

// tokenLookup accepts "Authorization: Bearer <t>" as well as a raw "<t>".
const tokenLookup = "header:" + echo.HeaderAuthorization + ":Bearer ," +
	"header:" + echo.HeaderAuthorization

// Guard rejects a request before its handler runs unless it carries a token
// the codec verifies. The verified claim set is stored under ClaimsKey.
func Guard(codec *auth.TokenCodec) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ClaimsKey,
		TokenLookup: tokenLookup,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return codec.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			cause := apperrors.ErrInvalidToken
			if strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) == "" {
				cause = apperrors.ErrMissingToken
			}
			httpErr := apperrors.MapErrorToHTTP(cause)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// ClaimsFrom returns the claim set attached by Guard, or nil on routes that
// are not guarded.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}

