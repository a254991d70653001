// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy of the ring buffer and error handling utilities.

package api

import (
	"errors"
	"fmt"
)

// Ring errors. None of them is fatal: a rejected call leaves the ring unchanged.
var (
	ErrBufferFull       = errors.New("ring buffer is full")
	ErrBufferEmpty      = errors.New("ring buffer is empty")
	ErrInsufficientData = errors.New("insufficient data in ring buffer")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidCapacity  = fmt.Errorf("%w: ring capacity must be at least 1", ErrInvalidArgument)
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeInvalidCapacity
	ErrCodeBufferFull
	ErrCodeBufferEmpty
	ErrCodeInsufficientData
	ErrCodeInternal
)

var codeSentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument:  ErrInvalidArgument,
	ErrCodeInvalidCapacity:  ErrInvalidCapacity,
	ErrCodeBufferFull:       ErrBufferFull,
	ErrCodeBufferEmpty:      ErrBufferEmpty,
	ErrCodeInsufficientData: ErrInsufficientData,
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap returns the sentinel matching e.Code, so errors.Is works on
// structured errors.
func (e *Error) Unwrap() error {
	return codeSentinels[e.Code]
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the ErrorCode of err, ErrCodeOK for nil and
// ErrCodeInternal for errors outside the taxonomy.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	// ErrInvalidCapacity wraps ErrInvalidArgument, check it first.
	for _, code := range []ErrorCode{
		ErrCodeInvalidCapacity,
		ErrCodeInvalidArgument,
		ErrCodeBufferFull,
		ErrCodeInsufficientData,
		ErrCodeBufferEmpty,
	} {
		if errors.Is(err, codeSentinels[code]) {
			return code
		}
	}
	return ErrCodeInternal
}
