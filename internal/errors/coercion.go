package errors

import (
	stdErrors "errors"
	"fmt"
)

// CoercionError reports a catalog value that cannot be converted to the
// datatype of its destination field. It is never swallowed by the diff
// engines: a bad value is a data problem the caller has to surface.
type CoercionError struct {
	Value    any
	Datatype string
	Err      error
}

func (e *CoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %v to %s: %v", e.Value, e.Datatype, e.Err)
	}
	return fmt.Sprintf("cannot convert %v to %s", e.Value, e.Datatype)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// NewCoercionError creates a CoercionError for value and datatype.
func NewCoercionError(value any, datatype string, err error) *CoercionError {
	return &CoercionError{Value: value, Datatype: datatype, Err: err}
}

// IsCoercionError reports whether err is a CoercionError (even when wrapped).
func IsCoercionError(err error) bool {
	var coerceErr *CoercionError
	return stdErrors.As(err, &coerceErr)
}
