package eventflow

import (
	"errors"
	"fmt"
)

// Fault marks an expected, declared violation of a domain rule. Anything that
// is not a Fault counts as a system error for classification purposes.
type Fault struct {
	msg   string
	cause error
}

// Faultf builds a Fault from a format string. The %w verb wraps a cause that
// stays reachable through errors.Is and errors.As.
func Faultf(format string, args ...any) *Fault {
	err := fmt.Errorf(format, args...)
	return &Fault{msg: err.Error(), cause: errors.Unwrap(err)}
}

func (f *Fault) Error() string { return f.msg }

func (f *Fault) Unwrap() error { return f.cause }

// AsFault reports whether err is, or wraps, a Fault.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ErrCommandAborted is returned from a business action when it should be
// aborted without further modifications to the Aggregate. It classifies as a
// Fault.
var ErrCommandAborted = Faultf("command aborted")
