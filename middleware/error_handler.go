package middleware

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/utils"
)

type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Error      []string `json:"error"`
}

// ErrorHandler is the single boundary that turns typed handler errors
// into the wire error envelope. Handlers attach errors with c.Error and
// abort; nothing below this middleware writes error responses itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *utils.APIError
		if !errors.As(err, &apiErr) {
			log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			apiErr = utils.NewInternalError("Something went wrong")
		}

		c.JSON(apiErr.StatusCode, errorEnvelope{
			StatusCode: apiErr.StatusCode,
			Data:       nil,
			Message:    apiErr.Message,
			Success:    false,
			Error:      apiErr.Errors,
		})
	}
}

// AbortWithError attaches a typed error and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
