// Package handler exposes the HTTP API.  Handlers bind and validate the
// request, call a repository or service, and translate the apperr kind of
// any failure into a status code.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/middleware"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator; install it with e.Validator = ...
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks the `validate` tags of i.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// bindAndValidate decodes the request into req and runs its validate tags.
// On failure it has already written the 400 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
	return err.Error()
}

// respondError writes the status matching err's kind.  Unclassified
// errors are logged and reported as a generic 500; dependency failures
// get a fixed 502 message.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch apperr.Kind(err) {
	case apperr.ErrInvalidArgument:
		status = http.StatusBadRequest
	case apperr.ErrConstraintViolation:
		status = http.StatusConflict
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrPaymentNotComplete:
		status = http.StatusPaymentRequired
	case apperr.ErrDependencyUnavailable:
		status = http.StatusBadGateway
	}

	entry := logging.FromContext(c.Request().Context()).WithError(err)
	switch status {
	case http.StatusInternalServerError:
		entry.Error("request failed")
		return c.JSON(status, echo.Map{"error": "internal error"})
	case http.StatusBadGateway:
		// upstream detail stays in the log
		entry.Warn("dependency failed")
		return c.JSON(status, echo.Map{"error": apperr.ErrDependencyUnavailable.Error()})
	}
	entry.WithField("status", status).Info("request rejected")
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// currentIdentity returns the caller stored by the auth middleware.
func currentIdentity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
