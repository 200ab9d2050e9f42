package taskgraph

import "errors"

// Namespace prefixes every sentinel error message produced by this package,
// matching the teacher's convention of a single namespace constant.
const Namespace = "taskgraph"

var (
	// ErrShutdown's message is the PreconditionError panic raised when a
	// submission is attempted after Context.Close.
	ErrShutdown = errors.New(Namespace + ": context is shut down")

	// ErrInvalidKeyArity's message is the PreconditionError panic raised when
	// GetKey is asked for an argument index outside the key's declared arity.
	ErrInvalidKeyArity = errors.New(Namespace + ": key argument index out of range")
)

// PreconditionError marks a misuse of the API that the spec requires to be
// fatal (dereferencing an empty Result, passing the wrong function identifier
// to GetKey, upcasting a Future that already carries a non-identity
// resolver, releasing a handle more times than it was acquired). Observed
// via panic: the caller misused handle/lifetime invariants in a way that is
// unsafe to continue past, mirroring the original's std::terminate-on-misuse
// design.
type PreconditionError struct {
	Op  string
	Msg string
}

func (e *PreconditionError) Error() string {
	return Namespace + ": precondition violated in " + e.Op + ": " + e.Msg
}

func panicPrecondition(op, msg string) {
	panic(&PreconditionError{Op: op, Msg: msg})
}

// KeyError tags a producer error with the identity of the Key whose task
// produced it, adapting the teacher's error_tagging.go (TaskMetaError /
// taskTaggedError) from batch-positional task IDs to Store-entry identity.
type KeyError struct {
	err      error
	funcName string
}

func newKeyError(err error, funcName string) error {
	if err == nil {
		return nil
	}
	return &KeyError{err: err, funcName: funcName}
}

func (e *KeyError) Error() string { return e.funcName + ": " + e.err.Error() }

func (e *KeyError) Unwrap() error { return e.err }

// FuncName returns the name of the function whose submission produced err, if
// err (or any error it wraps) is a *KeyError.
func FuncName(err error) (string, bool) {
	var ke *KeyError
	if errors.As(err, &ke) {
		return ke.funcName, true
	}
	return "", false
}
