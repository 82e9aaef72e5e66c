package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
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

// RespondError translates the error taxonomy into an HTTP status: NotFound
// → 404, BadRequest → 400, Conflict → 409, everything else → 500.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch apperrors.Code(err) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperrors.ErrBadRequest:
		status = http.StatusBadRequest
		message = err.Error()
	case apperrors.ErrConflict:
		status = http.StatusConflict
		message = err.Error()
	}

	c.JSON(status, NewErrorResponse(message))
}
