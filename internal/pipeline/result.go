// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

// Result is the envelope every public pipeline operation returns. Errors
// never cross the package boundary as Go errors: a failed stage reports
// Success=false and a human-readable Error, which the UI shows as-is.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	cause error
}

func ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: &v}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error(), cause: err}
}

// Err returns the failure as an error, or nil on success. The error
// unwraps to the cause when the pipeline produced the result.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &StageError{Message: r.Error, cause: r.cause}
}
