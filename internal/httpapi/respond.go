package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/punchclock/internal/apperr"
)

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Expired:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func respond[T any](c *gin.Context, status int, data T) {
	c.JSON(status, apperr.Wrap(data, nil))
}

func respondErr(c *gin.Context, err error) {
	c.JSON(statusFor(apperr.KindOf(err)), apperr.Fail[any](err))
}

func badRequest(c *gin.Context, format string, args ...any) {
	respondErr(c, apperr.Invalid(format, args...))
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid %s", name)
		return 0, false
	}
	return id, true
}
