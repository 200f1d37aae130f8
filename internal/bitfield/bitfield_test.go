package bitfield_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torrentshed/gorent/internal/bitfield"
)

func TestSetAndHas(t *testing.T) {
	bf := bitfield.New(20)
	bf.Set(0)
	bf.Set(9)
	bf.Set(19)

	require.True(t, bf.Has(0))
	require.True(t, bf.Has(9))
	require.True(t, bf.Has(19))

	for i := 0; i < 20; i++ {
		if i == 0 || i == 9 || i == 19 {
			continue
		}
		require.Falsef(t, bf.Has(i), "bit %d should not be set", i)
	}
}

func TestLayoutIsBigEndianMSBFirst(t *testing.T) {
	bf := bitfield.New(8)
	bf.Set(0)
	require.Equal(t, byte(0x80), bf[0])

	bf2 := bitfield.New(8)
	bf2.Set(7)
	require.Equal(t, byte(0x01), bf2[0])
}

func TestOutOfRangeIsSilentlyIgnored(t *testing.T) {
	bf := bitfield.New(4)
	require.False(t, bf.Has(1000))
	require.NotPanics(t, func() { bf.Set(1000) })
	require.False(t, bf.Has(-1))
}
