package resource_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-matchmaking-backoffice/resource"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	calls := 0
	ok := resource.Fetch(context.Background(), func(context.Context) ([]string, error) {
		calls++
		return []string{"a"}, nil
	})
	require.True(t, ok.Ok())
	require.Equal(t, []string{"a"}, ok.Data)

	failed := resource.Fetch(context.Background(), func(context.Context) ([]string, error) {
		calls++
		return []string{"stale"}, fmt.Errorf("boom")
	})
	require.Equal(t, resource.StatusError, failed.Status)
	require.Nil(t, failed.Data)
	require.EqualError(t, failed.Err, "boom")
	require.Equal(t, 2, calls)
}

func TestRunAndPending(t *testing.T) {
	var pending resource.State[int]
	require.Equal(t, resource.StatusPending, pending.Status)
	require.False(t, pending.Ok())

	st := resource.Run(context.Background(), func(context.Context) error { return nil })
	require.True(t, st.Ok())
	st = resource.Run(context.Background(), func(context.Context) error { return fmt.Errorf("nope") })
	require.Equal(t, resource.StatusError, st.Status)
}
