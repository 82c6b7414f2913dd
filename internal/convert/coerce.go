package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
)

// Local column datatypes understood by Coerce.
const (
	DatatypeInt      = "int"
	DatatypeFloat    = "float"
	DatatypeDatetime = "datetime"
	DatatypeRating   = "rating"
	DatatypeBool     = "bool"
	DatatypeText     = "text"
	DatatypeComments = "comments"
)

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Coerce converts v to the native value of a column with the given
// datatype. nil and "" always yield nil, for bool too: empty means no change
// intended, not false. Unknown datatypes pass the value through.
func Coerce(v any, datatype string) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}

	switch datatype {
	case DatatypeInt:
		return toInt(v, datatype)
	case DatatypeFloat:
		f, err := parseFloat(v)
		if err != nil {
			return nil, apperrors.NewCoercionError(v, datatype, err)
		}
		return f, nil
	case DatatypeDatetime:
		t, err := toTime(v)
		if err != nil {
			return nil, apperrors.NewCoercionError(v, datatype, err)
		}
		return t, nil
	case DatatypeRating:
		f, err := parseFloat(v)
		if err != nil {
			return nil, apperrors.NewCoercionError(v, datatype, err)
		}
		return int(math.Trunc(f)), nil
	case DatatypeBool:
		return ToBool(v), nil
	default:
		return v, nil
	}
}

func toInt(v any, datatype string) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, apperrors.NewCoercionError(v, datatype, err)
		}
		return i, nil
	}
	return nil, apperrors.NewCoercionError(v, datatype, nil)
}

// ToFloat converts numeric values and numeric strings to float64. Failures
// are CoercionErrors.
func ToFloat(v any) (float64, error) {
	f, err := parseFloat(v)
	if err != nil {
		return 0, apperrors.NewCoercionError(v, DatatypeFloat, err)
	}
	return f, nil
}

func parseFloat(v any) (float64, error) {
	switch t := v.(type) {
	case bool:
		return 0, fmt.Errorf("boolean is not a number")
	case string:
		v = strings.TrimSpace(t)
	}
	return cast.ToFloat64E(v)
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return cast.ToTimeE(strings.TrimSpace(t))
	}
	return time.Time{}, fmt.Errorf("unsupported type %T", v)
}

// ToBool is the local catalog's truthiness: strings are true only for
// yes/true/1 (any case), numbers when non-zero, nil is false.
func ToBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case *bool:
		return b != nil && *b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "yes", "true", "1":
			return true
		}
		return false
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	}
	return false
}
