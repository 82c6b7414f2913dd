package convert

import (
	"testing"
	"time"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceAbsentInputs(t *testing.T) {
	for _, datatype := range []string{"int", "float", "datetime", "rating", "bool", "text"} {
		got, err := Coerce("", datatype)
		require.NoError(t, err)
		assert.Nil(t, got, "empty string to %s", datatype)

		got, err = Coerce(nil, datatype)
		require.NoError(t, err)
		assert.Nil(t, got, "nil to %s", datatype)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		datatype string
		want     any
	}{
		{name: "bool zero is false", value: "0", datatype: "bool", want: false},
		{name: "bool yes", value: "Yes", datatype: "bool", want: true},
		{name: "bool TRUE", value: "TRUE", datatype: "bool", want: true},
		{name: "bool one", value: "1", datatype: "bool", want: true},
		{name: "bool other", value: "nope", datatype: "bool", want: false},
		{name: "bool passthrough", value: true, datatype: "bool", want: true},
		{name: "int", value: "42", datatype: "int", want: 42},
		{name: "int from float", value: 42.9, datatype: "int", want: 42},
		{name: "float", value: "62.5", datatype: "float", want: 62.5},
		{name: "rating truncates", value: "7.9", datatype: "rating", want: 7},
		{name: "rating int", value: "8", datatype: "rating", want: 8},
		{name: "text passthrough", value: "hello", datatype: "text", want: "hello"},
		{name: "comments passthrough", value: "<p>hi</p>", datatype: "comments", want: "<p>hi</p>"},
		{name: "unknown passthrough", value: "x", datatype: "enumeration", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.datatype)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceDatetime(t *testing.T) {
	got, err := Coerce("2024-01-15", "datetime")
	require.NoError(t, err)
	ts, ok := got.(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", ts.Format(time.DateOnly))

	got, err = Coerce("2024-01-15T10:30:00Z", "datetime")
	require.NoError(t, err)
	assert.Equal(t, 10, got.(time.Time).Hour())
}

func TestCoerceFailuresAreCoercionErrors(t *testing.T) {
	tests := []struct {
		value    any
		datatype string
	}{
		{value: "abc", datatype: "float"},
		{value: "abc", datatype: "int"},
		{value: "4.5", datatype: "int"},
		{value: "abc", datatype: "rating"},
		{value: "not a date", datatype: "datetime"},
		{value: true, datatype: "float"},
	}

	for _, tt := range tests {
		t.Run(tt.datatype, func(t *testing.T) {
			_, err := Coerce(tt.value, tt.datatype)
			require.Error(t, err)
			assert.True(t, apperrors.IsCoercionError(err))
		})
	}
}

func TestToBool(t *testing.T) {
	assert.False(t, ToBool(nil))
	assert.False(t, ToBool(""))
	assert.True(t, ToBool("yes"))
	assert.False(t, ToBool("No"))
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool(0.0))
}
