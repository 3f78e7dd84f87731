package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/validator"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err as an error envelope and aborts the chain. Server
// side failures are logged with the request's logger and reach the client
// only as an opaque message.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	status := appErr.StatusCode()

	if status >= 500 {
		log.Ctx(c.Request.Context()).Error().
			Err(appErr.Err).
			Int("status", status).
			Str("path", c.FullPath()).
			Msg("request failed")
	}

	resp := NewErrorResponse(appErr.Message)
	if appErr.Details != nil {
		resp.Data = appErr.Details
	}
	c.AbortWithStatusJSON(status, resp)
}

// BindJSON decodes the body into obj and writes a 400 on failure.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondError(c, apperrors.BadRequest(validator.Message(err), err))
		return false
	}
	return true
}

// ParamID parses a positive integer path parameter and writes a 400 when it
// is not one.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), err))
		return 0, false
	}
	return id, true
}
