package redis_client

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestGetRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c1, err := GetRedisClient(mr.Addr(), WithDB(2), WithPassword(""))
	require.NoError(t, err)
	c2, err := GetRedisClient(mr.Addr())
	require.NoError(t, err)
	require.Same(t, c1, c2)
	require.Equal(t, 2, c1.Options().DB)

	require.NoError(t, Ping(context.Background(), c1))
}

func TestCloseRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c1, err := GetRedisClient(mr.Addr())
	require.NoError(t, err)
	require.NoError(t, CloseRedisClient(mr.Addr()))
	require.Error(t, Ping(context.Background(), c1))

	// 關閉後重新取得的是新的 client
	c2, err := GetRedisClient(mr.Addr())
	require.NoError(t, err)
	require.NotSame(t, c1, c2)
	require.NoError(t, Ping(context.Background(), c2))
	require.NoError(t, CloseRedisClient(mr.Addr()))

	require.NoError(t, CloseRedisClient("127.0.0.1:1"))
}

func TestGetRedisClient_EmptyAddress(t *testing.T) {
	_, err := GetRedisClient("")
	require.Error(t, err)
}
