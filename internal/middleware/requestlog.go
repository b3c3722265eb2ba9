package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-tickets/internal/logging"
)

// CorrelationHeader carries the request correlation id in both directions.
const CorrelationHeader = "Correlation-ID"

// RequestLogger attaches a correlation id and a request scoped logger to
// every request and logs handler errors.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			correlationID := req.Header.Get(CorrelationHeader)
			if correlationID == "" {
				correlationID = uuid.New().String()
			}
			c.Response().Header().Set(CorrelationHeader, correlationID)

			ctx := logging.ContextWithCorrelationID(req.Context(), correlationID)
			ctx = logging.ToContext(ctx, logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         req.Method,
				"path":           req.URL.Path,
			}))
			c.SetRequest(req.WithContext(ctx))

			logging.FromContext(ctx).Info("Handling a request")

			err := next(c)
			if err != nil {
				logging.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}
			return err
		}
	}
}
