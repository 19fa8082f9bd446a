package secretshare

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/smc/field"
)

// test that any value can be rebuilt from its shares
func Test_share_round_trip(t *testing.T) {
	values := []int64{0, 1, 14, 7918, 7919, 123456, -3}

	for _, v := range values {
		for n := 1; n <= 7; n++ {
			secret := field.New(v)
			shares, err := Split(rand.Reader, secret, n)
			require.NoError(t, err)
			require.Len(t, shares, n)

			require.True(t, secret.Equal(Reconstruct(shares)), "value %d with %d shares", v, n)
		}
	}
}

func Test_share_single_share_is_secret(t *testing.T) {
	shares, err := Split(rand.Reader, field.New(42), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(42), shares[0].Value.Uint64())
}

func Test_share_invalid_count(t *testing.T) {
	_, err := Split(rand.Reader, field.New(1), 0)
	require.Error(t, err)
}

func Test_share_additive_homomorphism(t *testing.T) {
	x, y := field.New(5000), field.New(4000)
	k := field.New(17)

	xs, err := Split(rand.Reader, x, 3)
	require.NoError(t, err)
	ys, err := Split(rand.Reader, y, 3)
	require.NoError(t, err)

	sums := make([]Share, 3)
	diffs := make([]Share, 3)
	scaled := make([]Share, 3)
	for i := range xs {
		sums[i] = xs[i].Add(ys[i])
		diffs[i] = xs[i].Sub(ys[i])
		scaled[i] = xs[i].Scale(k)
	}

	require.Equal(t, (5000+4000)%field.Prime, Reconstruct(sums).Uint64())
	require.Equal(t, uint64(1000), Reconstruct(diffs).Uint64())
	require.Equal(t, (5000*17)%field.Prime, Reconstruct(scaled).Uint64())
}

func Test_share_encoding(t *testing.T) {
	s := NewShare(field.New(300))
	require.True(t, s.Value.Equal(ShareFromBytes(s.Bytes()).Value))
	require.Equal(t, "Share(300)", s.String())
	require.Empty(t, NewShare(field.Zero()).Bytes())
}
