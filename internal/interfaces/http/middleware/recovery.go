package middleware

import (
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/shared/errors"
	"github.com/bytescookies/cookievault/internal/shared/logger"
	"github.com/bytescookies/cookievault/internal/shared/utils"
)

// Recovery recovers from panics and returns a generic 500. Broken client
// connections are logged and skipped since no response can be written.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if isBrokenConnection(err) {
					log.Warnw("client connection broken",
						"path", c.Request.URL.Path,
						"error", err)
					c.Abort()
					return
				}

				log.Errorw("panic recovered",
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"client_ip", c.ClientIP(),
					"error", err)

				utils.ErrorResponse(c, http.StatusInternalServerError,
					"Internal server error", errors.CodeInternalError)
				c.Abort()
			}
		}()
		c.Next()
	}
}

func isBrokenConnection(err interface{}) bool {
	ne, ok := err.(*net.OpError)
	if !ok {
		return false
	}
	var se *os.SyscallError
	if !stderrors.As(ne.Err, &se) {
		return false
	}
	if se.Err == syscall.EPIPE || se.Err == syscall.ECONNRESET {
		return true
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
