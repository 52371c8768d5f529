package bizerror

import (
	"encoding/json"
	"errors"
	"fleetcare/misc"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = fmt.Errorf("%v", ret)
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	// bad request: binding errors carried by ErrBadParam are unwrapped first
	var badParam *ErrBadParam
	if errors.As(genericErr, &badParam) && badParam.Cause != nil {
		if errors.Is(badParam.Cause, io.EOF) {
			abort(c, http.StatusBadRequest, "bad_request.body_not_found", "body not found", nil)
			return
		}
	}

	var bizErr BizError
	if errors.As(genericErr, &bizErr) {
		respond := bizErr.Respond()
		abort(c, respond.Status, respond.Code, respond.Message, respond.Data)
		return
	}

	if errors.Is(genericErr, io.EOF) {
		abort(c, http.StatusBadRequest, "bad_request.body_not_found", "body not found", nil)
		return
	}
	var syntaxErr *json.SyntaxError
	if errors.As(genericErr, &syntaxErr) {
		abort(c, http.StatusBadRequest, "bad_request.invalid_body_format", "invalid body format", syntaxErr.Error())
		return
	}
	var validationErr validator.ValidationErrors
	if errors.As(genericErr, &validationErr) {
		abort(c, http.StatusBadRequest, "bad_request.validation_failed", "validation failed", validationErr.Error())
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		abort(c, http.StatusUnauthorized, "common.unauthenticated", "unauthenticated", nil)
		return
	}
	if errors.Is(genericErr, ErrInvalidPassword) {
		abort(c, http.StatusUnauthorized, "security.invalid_password", "invalid password", nil)
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		abort(c, http.StatusForbidden, "security.forbidden", "access forbidden", nil)
		return
	}
	if errors.Is(genericErr, ErrInvalidTransition) {
		abort(c, http.StatusBadRequest, "lifecycle.invalid_transition", genericErr.Error(), nil)
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		abort(c, http.StatusNotFound, "common.record_not_found", "record not found", nil)
		return
	}

	abort(c, http.StatusInternalServerError, "common.internal_server_error", err.Error(), nil)
}

func abort(c *gin.Context, status int, code, message string, data interface{}) {
	c.JSON(status, &misc.ErrorBody{Code: code, Message: message, Data: data})
	c.Abort()
}
