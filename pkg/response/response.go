package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Sahaya/pkg/errors"
)

type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Body{Code: status, Message: message})
}

// FromError maps a coded domain error onto an HTTP status.
func FromError(c *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeValidation:
		Fail(c, http.StatusBadRequest, err.Error())
	case errors.CodeNotFound:
		Fail(c, http.StatusNotFound, err.Error())
	case errors.CodeForbidden:
		Fail(c, http.StatusForbidden, err.Error())
	case errors.CodeAlreadyTerminal, errors.CodeConcurrentModification:
		Fail(c, http.StatusConflict, err.Error())
	case errors.CodeRateLimited:
		Fail(c, http.StatusTooManyRequests, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}
