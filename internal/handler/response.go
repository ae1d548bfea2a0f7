package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse writes {success:true, message?, ...fields}.
func SuccessResponse(c *gin.Context, statusCode int, message string, fields gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

// ErrorResponse writes {success:false, message}.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
	})
}

// statusFor maps a logic error kind to its HTTP status.
func statusFor(kind logic.ErrorKind) int {
	switch kind {
	case logic.KindValidation:
		return http.StatusBadRequest
	case logic.KindNotFound:
		return http.StatusNotFound
	case logic.KindConflict:
		return http.StatusConflict
	case logic.KindUnauthorized:
		return http.StatusUnauthorized
	case logic.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a client-safe response. Errors that are not
// *logic.Error get the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	var e *logic.Error
	if !errors.As(err, &e) {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, fallback)
		return
	}
	if e.Kind == logic.KindInternal || e.Kind == logic.KindExternal {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	ErrorResponse(c, statusFor(e.Kind), e.Message)
}

// bindJSON decodes the body into req. An empty body leaves req zeroed so
// the logic layer reports the missing fields.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
