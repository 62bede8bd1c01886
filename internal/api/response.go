package api

import (
	"net/http"

	"gator-forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Fail writes err with the status its code maps to and aborts the chain.
func Fail(c *gin.Context, err error) {
	appErr := utils.AsAppError(err)
	if appErr.Code == utils.ErrDatabase || appErr.Code == utils.ErrMessageRejected {
		_ = c.Error(err)
		c.AbortWithStatusJSON(utils.AppErrorToHTTPStatus(appErr.Code), Response{
			Error: "Internal server error",
			Code:  appErr.Code,
		})
		return
	}
	c.AbortWithStatusJSON(utils.AppErrorToHTTPStatus(appErr.Code), Response{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// BadRequest reports a malformed request body or query.
func BadRequest(c *gin.Context, message string) {
	Fail(c, utils.NewAppError(utils.ErrInvalidInput, message, nil))
}
