package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"opsboard/internal/middleware"
	"opsboard/internal/services"

	"github.com/gin-gonic/gin"
)

const exposeErrorsKey = "expose_internal_errors"

// exposeInternalErrors lets storage fault details reach clients of one router.
func exposeInternalErrors(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeErrorsKey, expose)
		c.Next()
	}
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalidInput, services.KindInvalidReference, services.KindInvalidOperation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	message := err.Error()

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	if kind == services.KindStorageFault {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		if c.GetBool(exposeErrorsKey) {
			message = err.Error()
		} else if svcErr == nil {
			message = "internal error"
		}
	}

	c.JSON(statusFor(kind), gin.H{
		"success": false,
		"error":   string(kind),
		"message": message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   string(services.KindInvalidInput),
		"message": message,
	})
}

func success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// parseID reads a positive numeric path parameter. It writes the 400 response
// itself and reports false when the value is unusable.
func parseID(c *gin.Context, param, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+entity+" ID")
		return 0, false
	}
	return uint(id), true
}

// bindOptionalJSON binds a JSON body when one was sent. An empty body leaves
// obj untouched.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// actingUser prefers the authenticated identity and falls back to the
// user_id the client sent.
func actingUser(c *gin.Context, fromBody *uint) *uint {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	if fromBody != nil && *fromBody > 0 {
		return fromBody
	}
	return nil
}
