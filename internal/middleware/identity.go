package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// identityKey is the echo context key Authenticate stores the caller under.
const identityKey = "identity"

// SetIdentity stores id on the request context.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the authenticated caller, if any.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	if !ok || id.ID == "" {
		return model.Identity{}, false
	}
	return id, true
}

// userID returns the caller id for keying, or "anon".
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.ID
	}
	return "anon"
}
