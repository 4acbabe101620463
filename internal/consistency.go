package internal

import (
	"errors"
	"fmt"
)

// Strictness decides what happens on a consistency violation.
type Strictness int

const (
	// Lenient logs the violation, refuses the offending update and returns the error.
	Lenient Strictness = iota
	// Strict panics with the *ConsistencyError.
	Strict
)

func (s Strictness) String() string {
	switch s {
	case Strict:
		return "strict"
	default:
		return "lenient"
	}
}

var (
	ErrConsistency        = errors.New("stitch: consistency violation")
	ErrNodeNotFound       = errors.New("stitch: node not found")
	ErrPortNotFound       = errors.New("stitch: port not found")
	ErrDefinitionNotFound = errors.New("stitch: component definition not found")
	ErrPassInFlight       = errors.New("stitch: pass already in flight")
	ErrWrongGoroutine     = errors.New("stitch: graph used outside its owning goroutine")
	ErrInvalidSnapshot    = errors.New("stitch: invalid snapshot")
)

// ConsistencyError reports a data-integrity or programming bug. It unwraps to
// ErrConsistency and to its cause, if any.
type ConsistencyError struct {
	Op    string
	Msg   string
	Cause error
}

func (e *ConsistencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("consistency violation in %s: %s: %v", e.Op, e.Msg, e.Cause)
	}
	return fmt.Sprintf("consistency violation in %s: %s", e.Op, e.Msg)
}

func (e *ConsistencyError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConsistency}
	}
	return []error{ErrConsistency, e.Cause}
}

// violate signals a consistency violation according to the runtime strictness.
func (rt *Runtime) violate(op string, cause error, format string, args ...any) error {
	err := &ConsistencyError{
		Op:    op,
		Msg:   fmt.Sprintf(format, args...),
		Cause: cause,
	}

	if rt.strictness == Strict {
		panic(err)
	}

	rt.log.Warn("consistency violation", "op", op, "error", err.Error())
	return err
}

// guard runs fn and, in lenient mode, turns a panic into a logged failure.
// It reports whether fn completed.
func (rt *Runtime) guard(op string, fn func()) (ok bool) {
	if rt.strictness == Strict {
		fn()
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			rt.log.Error("recovered panic", "op", op, "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	fn()
	return true
}
