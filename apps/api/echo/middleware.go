package echoapi

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/access"
)

// allow gates an endpoint on the access policy. The caller's role comes from
// the validated JWT; without one the caller is anonymous.
func allow(action access.Action, resource access.Resource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			verdict := access.Can(contextRole(ctx), action, resource)
			if verdict.Allowed() {
				return next(ctx)
			}
			if verdict == access.Unauthorized {
				return errUnauthorized
			}
			return errHttpForbidden
		}
	}
}

// optionalAuth validates a bearer token when one is supplied but lets
// anonymous requests through. Used on the world-readable endpoints.
func optionalAuth(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(ctx)
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return errUnauthorized
			}

			token, err := jwt.ParseWithClaims(parts[1], new(Claims), func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != middleware.AlgorithmHS256 {
					return nil, errors.Errorf("unexpected signing method: %s", t.Method.Alg())
				}
				return []byte(conf.SecretKey), nil
			})
			if err != nil || !token.Valid {
				return errUnauthorized
			}
			ctx.Set(contextTokenKey, token)
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
