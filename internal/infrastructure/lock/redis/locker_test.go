package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	lockRedis "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/lock/redis"
	"github.com/JoeShih716/go-gems-ledger/pkg/redis/redistest"
)

func TestLocker_AcquireRelease(t *testing.T) {
	client := redistest.NewClient(t)
	first := lockRedis.NewLocker(client, 0, nil)
	second := lockRedis.NewLocker(client, 0, nil)
	ctx := context.Background()
	key := "ledger:lock:currency:gems"

	release, err := first.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = second.Acquire(ctx, key)
	assert.ErrorIs(t, err, ports.ErrLockNotAcquired)

	release()

	release2, err := second.Acquire(ctx, key)
	require.NoError(t, err)
	// 重複釋放不會影響其他持有者
	release()
	_, err = first.Acquire(ctx, key)
	assert.ErrorIs(t, err, ports.ErrLockNotAcquired)
	release2()
}
