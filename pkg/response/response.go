package response

import (
	"errors"
	"net/http"

	appErr "arena-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	JSON(c, http.StatusOK, data, msg)
}

func Error(c *gin.Context, status int, msg string) {
	JSON(c, status, gin.H{}, msg)
}

// FromError writes err with the status its sentinel maps to.
func FromError(c *gin.Context, err error) {
	Error(c, StatusOf(err), err.Error())
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, appErr.ErrInvalidSide),
		errors.Is(err, appErr.ErrInvalidStake),
		errors.Is(err, appErr.ErrInvalidCardIndex):
		return http.StatusBadRequest
	case errors.Is(err, appErr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, appErr.ErrNotJoined):
		return http.StatusForbidden
	case errors.Is(err, appErr.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErr.ErrAlreadyJoined),
		errors.Is(err, appErr.ErrNotEnoughPlayers),
		errors.Is(err, appErr.ErrNotYourTurn),
		errors.Is(err, appErr.ErrMatchNotActive),
		errors.Is(err, appErr.ErrMatchNotIdle),
		errors.Is(err, appErr.ErrMatchInProgress),
		errors.Is(err, appErr.ErrMatchAlreadyRecorded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func JSON(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Body{
		Code: status,
		Data: data,
		Msg:  msg,
	})
}
