package handler

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

// AccessLog logs one line per request. The trace ID comes from the
// OpenTelemetry span when there is one, then the X-Request-ID header, then a
// fresh UUID.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now().UTC()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.Printf(
				"type: access, method: %s, url: %s, status: %d, userAgent: %s, traceID: %s, latency: %s",
				req.Method,
				req.URL.Path,
				c.Response().Status,
				req.UserAgent(),
				traceID(c),
				time.Since(start),
			)
			return nil
		}
	}
}

func traceID(c echo.Context) string {
	if sc := trace.SpanContextFromContext(c.Request().Context()); sc.IsValid() {
		return sc.TraceID().String()
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
