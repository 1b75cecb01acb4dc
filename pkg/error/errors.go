package error

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericError is implemented by every typed error that can be surfaced
// through the REST layer.
type GenericError interface {
	ErrCode() string
	StatusCode() int
	Error() string
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// NotFoundError is returned for unknown routes and unknown registry entries.
type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

// ErrSessionLost marks transport faults that can only be recovered by
// re-running the whole connection startup sequence.
var ErrSessionLost = errors.New("whatsapp session lost")

// LoadError describes a single file that could not be registered.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) ErrCode() string {
	return "LOAD_ERROR"
}

func (e *LoadError) StatusCode() int {
	return http.StatusUnprocessableEntity
}
