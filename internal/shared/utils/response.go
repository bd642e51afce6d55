package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/shared/errors"
)

// ErrorBody is the wire shape of every error response: a human message
// plus a machine code clients branch on.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSONResponse sends data as-is with the given status code.
func JSONResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// CreatedResponse sends data with a 201 status.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContentResponse sends a no content response
func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorResponse sends an error response with explicit status, message and code.
func ErrorResponse(c *gin.Context, statusCode int, message, code string) {
	c.JSON(statusCode, ErrorBody{Error: message, Code: code})
}

// ErrorResponseWithError maps an error to the {error, code} wire shape.
// Non-AppError values collapse to a generic 500 so internals never leak.
func ErrorResponseWithError(c *gin.Context, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		code := appErr.WireCode
		if code == "" {
			code = errors.CodeInternalError
		}
		c.JSON(appErr.Code, ErrorBody{Error: appErr.Message, Code: code})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{
		Error: "Internal server error occurred",
		Code:  errors.CodeInternalError,
	})
}
