package apiclient

import "github.com/pkg/errors"

// Result is the uniform outcome handed to views. Transport errors never escape it.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"-"`
}

func ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: v}
}

func fail[T any](err error) Result[T] {
	var se *StatusError
	if errors.As(err, &se) {
		return Result[T]{Error: se.Message, Status: se.Status}
	}
	return Result[T]{Error: err.Error()}
}

func failMsg[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// Err turns a failed result back into an error for Go callers.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Status != 0 {
		return &StatusError{Status: r.Status, Message: r.Error}
	}
	return errors.New(r.Error)
}
