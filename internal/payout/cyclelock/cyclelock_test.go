package cyclelock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()

	acquired, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired, "held lock must not be re-acquired")

	require.NoError(t, lock.Release(ctx))

	acquired, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired, "released lock is acquirable again")
}
