package lru

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerCache(t *testing.T) {
	require := require.New(t)

	cache := NewCache[rune, uint16](3)

	cache.Put('a', 68)
	cache.Put('b', 69)
	cache.Put('c', 70)

	require.Equal(3, cache.Len())
	require.Equal(1.0, cache.PortionFilled())

	val, ok := cache.Get('a')
	require.True(ok)
	require.Equal(uint16(68), val)

	cache.Put('d', 71)
	require.Equal(3, cache.Len())

	cache.Delete('d')
	_, ok = cache.Get('d')
	require.False(ok)

	cache.Flush()
	require.Equal(0, cache.Len())
	require.Equal(0.0, cache.PortionFilled())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	require := require.New(t)

	cache := NewCache[rune, uint16](2)
	cache.Put('x', 1)
	cache.Put('y', 2)

	_, ok := cache.Get('x')
	require.True(ok)
	cache.Put('z', 3)

	require.Equal(2, cache.Len())
	_, ok = cache.Get('y')
	require.False(ok)
	for _, r := range []rune{'x', 'z'} {
		_, ok = cache.Get(r)
		require.True(ok)
	}
}

func TestCacheClampsSize(t *testing.T) {
	require := require.New(t)

	cache := NewCache[rune, uint16](0)
	cache.Put('a', 1)
	cache.Put('b', 2)
	require.Equal(1, cache.Len())
	require.Equal(1.0, cache.PortionFilled())
}

func TestCacheGetOrLoad(t *testing.T) {
	require := require.New(t)

	cache := NewCache[rune, uint16](4)
	loads := 0
	load := func(r rune) (uint16, error) {
		loads++
		if r == '?' {
			return 0, errors.New("unmapped")
		}
		return uint16(r) - 29, nil
	}

	v, err := cache.GetOrLoad('A', load)
	require.NoError(err)
	require.Equal(uint16(36), v)

	v, err = cache.GetOrLoad('A', load)
	require.NoError(err)
	require.Equal(uint16(36), v)
	require.Equal(1, loads)

	_, err = cache.GetOrLoad('?', load)
	require.Error(err)
	require.Equal(1, cache.Len())
}
