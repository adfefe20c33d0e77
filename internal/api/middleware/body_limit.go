package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gocg-permutas/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Oversized bodies fail to bind;
// if the handler records the read error the response becomes 413.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Requisição muito grande.")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(err.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Requisição muito grande.")
				return
			}
		}
	}
}
