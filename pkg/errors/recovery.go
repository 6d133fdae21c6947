package errors

import (
	"fmt"
	"runtime/debug"
)

// FromPanic converts a recovered value into a fatal internal error carrying
// the goroutine stack. A nil value yields nil.
func FromPanic(r any) error {
	if r == nil {
		return nil
	}

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", r)
	}

	return ErrInternal.
		WithCause(cause).
		WithDetail("panic", true).
		WithDetail("stack_trace", string(debug.Stack())).
		AsFatal()
}

// Guard runs fn and turns a panic inside it into the returned error.
func Guard(fn func()) (err error) {
	defer func() {
		if p := FromPanic(recover()); p != nil {
			err = p
		}
	}()
	fn()
	return nil
}
