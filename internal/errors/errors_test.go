package errors_test

import (
	"fmt"
	"testing"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/stretchr/testify/require"
)

type codeError struct{ code int }

func (e *codeError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestWrapf(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "load %s", "x"))

	cause := &codeError{code: 502}
	err := errors.Wrapf(cause, "[api] GET %s", "/me")
	require.EqualError(t, err, "[api] GET /me: code 502")

	var target *codeError
	require.True(t, errors.As(err, &target))
	require.Equal(t, 502, target.code)
}

func TestJoin(t *testing.T) {
	require.Equal(t, errors.ErrSlotEmpty, errors.Join(errors.ErrSlotEmpty, nil))

	err := errors.Join(errors.ErrSessionStorage, fmt.Errorf("redis down"))
	require.True(t, errors.Is(err, errors.ErrSessionStorage))
	require.EqualError(t, err, "session storage failure: redis down")
}
