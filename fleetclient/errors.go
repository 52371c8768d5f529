package fleetclient

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/misc"
	"fmt"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// ErrHttpInvoke is a call that did not produce an error body, the server was unreachable or answered garbage.
type ErrHttpInvoke struct {
	Method     string
	Url        string
	StatusCode int
	RespBody   string

	Cause error
}

func (e *ErrHttpInvoke) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("http invoke %s %s failed: %v", e.Method, e.Url, e.Cause)
	}
	return fmt.Sprintf("http invoke %s %s failed: status %d, body '%s'", e.Method, e.Url, e.StatusCode, e.RespBody)
}

func (e *ErrHttpInvoke) Unwrap() error {
	return e.Cause
}

// ResponseError is an error body answered by the server, it unwraps to the matching bizerror value
// so callers test it with errors.Is and errors.As as they would in process.
type ResponseError struct {
	StatusCode int
	Body       misc.ErrorBody

	cause error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Body.Code, e.Body.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.cause
}

func newResponseError(status int, body *misc.ErrorBody) *ResponseError {
	e := &ResponseError{StatusCode: status, Body: *body}
	data, _ := body.Data.(map[string]interface{})
	switch {
	case body.Code == "common.record_not_found":
		e.cause = bizerror.ErrNotFound
		if id, ok := dataID(data); ok {
			e.cause = &bizerror.EntityNotFound{Entity: dataString(data, "entity"), ID: id}
		}
	case body.Code == "lifecycle.invalid_transition":
		e.cause = bizerror.ErrInvalidTransition
		if id, ok := dataID(data); ok {
			e.cause = &bizerror.TransitionError{Entity: dataString(data, "entity"), ID: id,
				From: dataString(data, "from"), To: dataString(data, "to")}
		}
	case body.Code == "security.forbidden":
		e.cause = bizerror.ErrForbidden
	case body.Code == "common.unauthenticated":
		e.cause = bizerror.ErrUnauthenticated
	case body.Code == "security.invalid_password":
		e.cause = bizerror.ErrInvalidPassword
	case body.Code == "common.bad_param" || strings.HasPrefix(body.Code, "bad_request."):
		e.cause = &bizerror.ErrBadParam{Cause: errors.New(body.Message)}
	case body.Code == "common.storage_failure":
		e.cause = &bizerror.ErrStorage{Cause: errors.New(strings.TrimPrefix(body.Message, "storage failure: "))}
	}
	return e
}

func dataString(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func dataID(data map[string]interface{}) (types.ID, bool) {
	raw := dataString(data, "id")
	if raw == "" {
		return 0, false
	}
	id, err := types.ParseID(raw)
	return id, err == nil
}
