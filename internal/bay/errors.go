package bay

import (
	"errors"
	"fmt"
)

// Error codes for monitor failures. All of them are fatal.
const (
	ErrCodeTopology       = "TOPOLOGY"
	ErrCodeDeviceCount    = "DEVICE_COUNT"
	ErrCodeTooManyDevices = "TOO_MANY_DEVICES"
	ErrCodeStats          = "STATS"
	ErrCodeRegister       = "REGISTER"
)

// Error is a bay monitoring failure with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Code returns the code of the first *Error in err's chain, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnsupportedChassis reports whether err means the disk layout does not
// fit the four-bay chassis, as opposed to an I/O failure.
func IsUnsupportedChassis(err error) bool {
	switch Code(err) {
	case ErrCodeTopology, ErrCodeDeviceCount, ErrCodeTooManyDevices:
		return true
	default:
		return false
	}
}
