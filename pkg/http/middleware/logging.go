package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one access-log line per request.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req, res := c.Request(), c.Response()
			log.Printf("%s %s from=%s status=%d bytes=%d took=%s",
				req.Method, req.RequestURI, c.RealIP(), res.Status, res.Size, time.Since(start))
			return err
		}
	}
}
