// Package errs defines the failure taxonomy shared by the relational store,
// the document mirror and the services built on top of them.
//
// Every failure crossing a package boundary is an *Error carrying a Kind, the
// operation that failed and the underlying cause. Callers branch on the kind:
//
//	if errors.Is(err, errs.ErrConstraint) { ... }
//	switch errs.KindOf(err) { ... }
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConnection Kind = "ConnectionError"
	KindConstraint Kind = "ConstraintViolation"
	KindInvalid    Kind = "InvalidInput"
	KindExecution  Kind = "ExecutionError"
	KindMirrorSync Kind = "MirrorSyncError"
	KindNotFound   Kind = "NotFound"
	KindEmptyOrder Kind = "EmptyOrder"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConnection = &Error{Kind: KindConnection}
	ErrConstraint = &Error{Kind: KindConstraint}
	ErrInvalid    = &Error{Kind: KindInvalid}
	ErrExecution  = &Error{Kind: KindExecution}
	ErrMirrorSync = &Error{Kind: KindMirrorSync}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrEmptyOrder = &Error{Kind: KindEmptyOrder}
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with an
// Op only matches errors raised by that operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

// KindOf returns the kind of the first *Error in err's chain. Untyped errors
// are execution errors; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExecution
}
