package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fundwit/go-commons/types"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidPassword   = errors.New("invalid password")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

// ErrBadParam is raised for malformed input.
type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: e.Error(), Cause: e.Cause}
}

func BadParam(message string) error {
	return &ErrBadParam{Cause: errors.New(message)}
}

type EntityNotFound struct {
	Entity string
	ID     types.ID
}

func NotFound(entity string, id types.ID) error {
	return &EntityNotFound{Entity: entity, ID: id}
}

func (e *EntityNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
func (e *EntityNotFound) Is(target error) bool {
	return target == ErrNotFound
}
func (e *EntityNotFound) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusNotFound, Code: "common.record_not_found", Message: e.Error(),
		Data: map[string]interface{}{"entity": e.Entity, "id": e.ID.String()}}
}

// TransitionError reports a status precondition that does not hold.
type TransitionError struct {
	Entity string
	ID     types.ID
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: transition from '%s' to '%s' is not allowed", e.Entity, e.ID, e.From, e.To)
	if e.Reason != "" {
		msg += ", " + e.Reason
	}
	return msg
}
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
func (e *TransitionError) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "lifecycle.invalid_transition", Message: e.Error(),
		Data: map[string]interface{}{"entity": e.Entity, "id": e.ID.String(), "from": e.From, "to": e.To}}
}

// ErrStorage wraps a persistence failure. The transaction it happened in has been rolled back.
type ErrStorage struct {
	Cause error
}

func (e *ErrStorage) Error() string {
	return "storage failure: " + e.Cause.Error()
}
func (e *ErrStorage) Unwrap() error {
	return e.Cause
}
func (e *ErrStorage) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusInternalServerError, Code: "common.storage_failure", Message: e.Error(), Cause: e.Cause}
}

// StorageFailure keeps classified errors as they are and wraps anything else into ErrStorage.
func StorageFailure(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(BizError); ok {
		return err
	}
	for _, known := range []error{ErrForbidden, ErrNotFound, ErrInvalidTransition, ErrUnauthenticated, ErrInvalidPassword} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &ErrStorage{Cause: err}
}
