package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/metrics"
)

// RequestLog logs one line per request and feeds the HTTP metrics.  It
// must sit inside the error handler's reach: errors are rendered first so
// the logged status is the one the client saw.
func RequestLog(log *logger.Logger) echo.MiddlewareFunc {
	log = log.With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			done := metrics.RequestStarted()
			defer done()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			metrics.ObserveRequest(req.Method, route, strconv.Itoa(res.Status), elapsed)

			kv := []interface{}{
				"method", req.Method,
				"route", route,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", elapsed.Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			}
			switch {
			case res.Status >= 500:
				log.Error("request", append(kv, "err", err)...)
			case res.Status >= 400:
				log.Info("request", kv...)
			default:
				log.Debug("request", kv...)
			}
			return nil
		}
	}
}
