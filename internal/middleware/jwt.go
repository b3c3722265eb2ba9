package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// AuthConfig selects how tokens from the identity provider are verified.
// At least one of Secret (HMAC) or PublicKeyPEM (RSA) must be set.
type AuthConfig struct {
	Secret       string
	PublicKeyPEM string
}

// Authenticate returns a middleware that validates the Bearer token issued
// by the hosted identity provider and stores the caller as a
// model.Identity.  Requests without a valid token get 401.
func Authenticate(cfg AuthConfig) (echo.MiddlewareFunc, error) {
	keyFunc, methods, err := keyFuncFor(cfg)
	if err != nil {
		return nil, err
	}
	parser := jwt.NewParser(jwt.WithValidMethods(methods))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				logging.FromContext(c.Request().Context()).WithError(err).Debug("rejected token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			id, err := identityFromClaims(claims)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			SetIdentity(c, id)

			req := c.Request()
			entry := logging.FromContext(req.Context()).WithField("user_id", id.ID)
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), entry)))
			return next(c)
		}
	}, nil
}

func keyFuncFor(cfg AuthConfig) (jwt.Keyfunc, []string, error) {
	var methods []string
	var rsaKey any
	if cfg.PublicKeyPEM != "" {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, nil, fmt.Errorf("middleware: parse identity public key: %w", err)
		}
		rsaKey = k
		methods = append(methods, "RS256", "RS384", "RS512")
	}
	if cfg.Secret != "" {
		methods = append(methods, "HS256", "HS384", "HS512")
	}
	if len(methods) == 0 {
		return nil, nil, errors.New("middleware: identity secret or public key is required")
	}

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if rsaKey != nil {
				return rsaKey, nil
			}
		case *jwt.SigningMethodHMAC:
			if cfg.Secret != "" {
				return []byte(cfg.Secret), nil
			}
		}
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return keyFunc, methods, nil
}

// identityFromClaims reads sub, name (or first_name + last_name) and role.
func identityFromClaims(claims jwt.MapClaims) (model.Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return model.Identity{}, errors.New("missing subject")
	}
	name, _ := claims["name"].(string)
	if name == "" {
		first, _ := claims["first_name"].(string)
		last, _ := claims["last_name"].(string)
		name = strings.TrimSpace(first + " " + last)
	}
	role, _ := claims["role"].(string)
	return model.Identity{ID: sub, DisplayName: name, Role: role}, nil
}
