package field

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_field_basic_operations(t *testing.T) {
	a := New(14)
	b := New(3)

	require.Equal(t, uint64(17), a.Add(b).Uint64())
	require.Equal(t, uint64(11), a.Sub(b).Uint64())
	require.Equal(t, uint64(42), a.Mul(b).Uint64())

	// wrap around
	require.Equal(t, Prime-11, b.Sub(a).Uint64())
	require.Equal(t, uint64(0), New(int64(Prime)).Uint64())
	require.Equal(t, uint64(1), New(int64(Prime)+1).Uint64())
	require.Equal(t, uint64((7000*7000)%Prime), New(7000).Mul(New(7000)).Uint64())
}

func Test_field_negative_values(t *testing.T) {
	require.Equal(t, Prime-1, New(-1).Uint64())
	require.Equal(t, uint64(0), New(-int64(Prime)).Uint64())
	require.True(t, New(-5).Add(New(5)).IsZero())
	require.True(t, New(8).Neg().Equal(New(-8)))

	// must not overflow
	smallest := New(-1 << 63)
	require.True(t, smallest.Add(FromUint64(1<<63)).IsZero())
}

func Test_field_zero_value(t *testing.T) {
	var e Element

	require.True(t, e.IsZero())
	require.True(t, e.Equal(Zero()))
	require.Equal(t, uint64(5), e.Add(New(5)).Uint64())
	require.Equal(t, "0", e.String())
}

func Test_field_bytes_encoding(t *testing.T) {
	require.Empty(t, Zero().Bytes())
	require.Equal(t, []byte{0x01}, New(1).Bytes())
	require.Equal(t, []byte{0x01, 0x00}, New(256).Bytes())
	require.Equal(t, []byte{0x1e, 0xee}, New(7918).Bytes())

	require.True(t, FromBytes(nil).IsZero())
	require.Equal(t, uint64(256), FromBytes([]byte{0x00, 0x01, 0x00}).Uint64())

	// values larger than the modulus are reduced
	require.Equal(t, uint64(1), FromBytes([]byte{0x1e, 0xf0}).Uint64())

	for i := int64(0); i < int64(Prime); i += 97 {
		e := New(i)
		require.True(t, e.Equal(FromBytes(e.Bytes())))
	}
}

func Test_field_random(t *testing.T) {
	seen := map[uint64]struct{}{}
	for i := 0; i < 200; i++ {
		e, err := Random(rand.Reader)
		require.NoError(t, err)
		require.Less(t, e.Uint64(), Prime)
		seen[e.Uint64()] = struct{}{}
	}

	// 200 draws out of 7919 values must not all collide
	require.Greater(t, len(seen), 100)
}

func Test_field_random_broken_reader(t *testing.T) {
	_, err := Random(bytes.NewReader([]byte{0x01}))
	require.Error(t, err)

	// a reader only producing out of range values
	_, err = Random(bytes.NewReader(bytes.Repeat([]byte{0xff}, 2*maxIterations)))
	require.ErrorIs(t, err, ErrMaxIterations)
}
