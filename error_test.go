package bsonfmt

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte(`{,}`))
	require.Error(t, err)
	wrapped := fmt.Errorf("wrapped: %w", err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "error wasn't a ParseError")
	require.True(t, errors.As(wrapped, &pe), "wrapped error wasn't a ParseError")
}

func TestParseErrorUnwrapsReadError(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte(`{"a":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		err   error
		want  string
	}{
		{
			label: "mismatch",
			err:   mismatch("int32", String("x"), KindInt32),
			want:  "can only convert Int32 to int32, not String",
		},
		{
			label: "mismatch with nil",
			err:   mismatch("int32", nil, KindInt32),
			want:  "cannot convert nil value to int32",
		},
		{
			label: "unsupported nil type",
			err:   &UnsupportedTypeError{},
			want:  "no document conversion for untyped nil",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.want, c.err.Error())
		})
	}
}

func TestElementErrorCause(t *testing.T) {
	t.Parallel()

	inner := mismatch("bool", Int32(1), KindBool)
	err := &ElementError{Key: "a", Err: inner}

	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Same(t, inner, tm)
	assert.Contains(t, err.Error(), `"a"`)
}
