package motor

import "github.com/pkg/errors"

// Errors reported by the motor control packages. Callers match them with
// errors.Cause.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidPort     = errors.New("invalid port")
	ErrNoDevice        = errors.New("no device")
	ErrAgain           = errors.New("try again")
	ErrIO              = errors.New("i/o error")
	ErrNotSupported    = errors.New("not supported")
	ErrFailed          = errors.New("failed")
)

// IsAgain reports whether err means the operation should be retried on a
// later tick.
func IsAgain(err error) bool {
	return errors.Cause(err) == ErrAgain
}
