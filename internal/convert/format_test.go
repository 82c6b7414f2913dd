package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	s := "text"
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "Read", want: "Read"},
		{name: "string pointer", in: &s, want: "text"},
		{name: "int", in: 8, want: "8"},
		{name: "whole float", in: 4.0, want: "4"},
		{name: "fraction", in: 62.5, want: "62.5"},
		{name: "bool", in: true, want: "true"},
		{name: "time", in: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), want: "2024-01-15T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestTruncateReview(t *testing.T) {
	assert.Equal(t, "(empty)", TruncateReview(""))
	assert.Equal(t, "Short and sweet", TruncateReview("Short and sweet"))

	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, TruncateReview(exact))

	long := strings.Repeat("b", 60)
	assert.Equal(t, strings.Repeat("b", 50)+"...", TruncateReview(long))
}

func TestRoundTenthAndPercent(t *testing.T) {
	assert.Equal(t, 33.3, RoundTenth(33.333))
	assert.Equal(t, 66.7, RoundTenth(66.666))
	assert.Equal(t, "50%", FormatPercent(50))
	assert.Equal(t, "33.3%", FormatPercent(RoundTenth(100.0/3)))
}

func TestDisplayHelpers(t *testing.T) {
	assert.Equal(t, "(empty)", OrEmpty(""))
	assert.Equal(t, "x", OrEmpty("x"))
	assert.Equal(t, "Yes", YesNo(true))
	assert.Equal(t, "No", YesNo(false))
}
