package domain

import (
	"errors"
	"fmt"
)

// ErrParse matches every TaskError of kind ParseError.
var ErrParse = errors.New("parse error")

// ErrUnknownAction matches every TaskError of kind UnknownAction.
var ErrUnknownAction = errors.New("unknown action")

// ErrHandler matches every TaskError of kind HandlerError.
var ErrHandler = errors.New("handler error")

// ErrTaskNotFound is returned when a task ID cannot be found in the store.
var ErrTaskNotFound = errors.New("task not found")

// ErrDuplicateTask is returned when inserting a task whose ID already exists.
var ErrDuplicateTask = errors.New("duplicate task")

// ErrInvalidTransition is returned when a task status change is not allowed.
var ErrInvalidTransition = errors.New("invalid task transition")

// ErrNotAnObject is returned when parameters are not a JSON object.
var ErrNotAnObject = errors.New("parameters must be a JSON object")

// ErrorKind classifies why a task failed.
type ErrorKind string

const (
	KindParse         ErrorKind = "ParseError"
	KindUnknownAction ErrorKind = "UnknownAction"
	KindHandler       ErrorKind = "HandlerError"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindParse:
		return ErrParse
	case KindUnknownAction:
		return ErrUnknownAction
	case KindHandler:
		return ErrHandler
	}
	return nil
}

// TaskError is the failure recorded on a Task.
// errors.Is matches the kind sentinel, errors.As/Unwrap reach the original cause.
type TaskError struct {
	Kind    ErrorKind `json:"kind"`
	Subtype string    `json:"subtype,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// NewTaskError builds a TaskError whose message is derived from cause.
func NewTaskError(kind ErrorKind, subtype string, cause error) *TaskError {
	msg := string(kind)
	if cause != nil {
		msg = cause.Error()
	}
	return &TaskError{Kind: kind, Subtype: subtype, Message: msg, Cause: cause}
}

func (e *TaskError) Error() string {
	if e.Subtype != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Subtype, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TaskError) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func (e *TaskError) clone() *TaskError {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
