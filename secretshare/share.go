// Package secretshare implements additive secret sharing over the field: a
// value is split into n shares whose sum mod p is the value.
package secretshare

import (
	"fmt"
	"io"

	"go.dedis.ch/smc/field"
	"golang.org/x/xerrors"
)

// Share is one participant's additive contribution toward some value.
type Share struct {
	Value field.Element
}

// NewShare wraps a field element.
func NewShare(v field.Element) Share {
	return Share{Value: v}
}

// ShareFromBytes decodes a share from its wire format.
func ShareFromBytes(b []byte) Share {
	return Share{Value: field.FromBytes(b)}
}

// Add returns a share of X+Y given shares of X and Y.
func (s Share) Add(o Share) Share {
	return Share{Value: s.Value.Add(o.Value)}
}

// Sub returns a share of X-Y given shares of X and Y.
func (s Share) Sub(o Share) Share {
	return Share{Value: s.Value.Sub(o.Value)}
}

// Mul multiplies the two share values. The product of two shares is NOT a
// share of the product; only use it on public terms.
func (s Share) Mul(o Share) Share {
	return Share{Value: s.Value.Mul(o.Value)}
}

// Scale returns a share of k*X given a share of X and a public k.
func (s Share) Scale(k field.Element) Share {
	return Share{Value: s.Value.Mul(k)}
}

// Bytes returns the wire format of the share.
func (s Share) Bytes() []byte {
	return s.Value.Bytes()
}

// String implements fmt.Stringer.
func (s Share) String() string {
	return fmt.Sprintf("Share(%s)", s.Value)
}

// Triplet holds one participant's shares of a Beaver triplet (a, b, c=a*b).
// Participants is the sorted set the triplet was split over: the shares only
// add up to a, b and c when summed over exactly that set.
type Triplet struct {
	A Share
	B Share
	C Share

	Participants []string
}

// Split generates n shares of secret. n-1 shares are uniform; the remaining
// one, placed first, makes the sum equal to the secret.
func Split(rand io.Reader, secret field.Element, n int) ([]Share, error) {
	if n < 1 {
		return nil, xerrors.Errorf("invalid number of shares: %d", n)
	}

	shares := make([]Share, n)
	sum := field.Zero()
	for i := 1; i < n; i++ {
		r, err := field.Random(rand)
		if err != nil {
			return nil, xerrors.Errorf("failed to sample share: %w", err)
		}
		shares[i] = NewShare(r)
		sum = sum.Add(r)
	}
	shares[0] = NewShare(secret.Sub(sum))

	return shares, nil
}

// Reconstruct sums the shares mod p.
func Reconstruct(shares []Share) field.Element {
	sum := field.Zero()
	for _, s := range shares {
		sum = sum.Add(s.Value)
	}
	return sum
}
