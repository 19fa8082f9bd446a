// Package field implements arithmetic in the prime field Z_p used by every
// share, triplet and result of the protocol.
package field

import (
	"io"
	"math/big"
	"strconv"

	"github.com/cronokirby/saferith"
	"golang.org/x/xerrors"
)

// Prime is the modulus of the field.
const Prime uint64 = 7919

const maxIterations = 255

var modulus = saferith.ModulusFromUint64(Prime)

// ErrMaxIterations is returned when the random source keeps producing values
// outside of the field.
var ErrMaxIterations = xerrors.Errorf("field: failed to sample after %d iterations", maxIterations)

// Element is an integer in [0, p). The zero value is the element 0.
// Elements are never modified once built: every operation returns a new one.
type Element struct {
	n *saferith.Nat
}

// Zero returns the additive identity.
func Zero() Element {
	return FromUint64(0)
}

// New returns v mod p. Negative values wrap around the field.
func New(v int64) Element {
	if v >= 0 {
		return FromUint64(uint64(v))
	}
	// -(v+1)+1 avoids overflowing on the smallest int64
	abs := uint64(-(v + 1)) + 1
	return FromUint64(abs).Neg()
}

// FromUint64 returns v mod p.
func FromUint64(v uint64) Element {
	return reduce(new(saferith.Nat).SetUint64(v))
}

// FromBytes decodes a big-endian integer of any length and reduces it mod p.
// The empty slice decodes to zero.
func FromBytes(b []byte) Element {
	return reduce(new(saferith.Nat).SetBytes(b))
}

// Random samples a uniform element of the field.
func Random(rand io.Reader) (Element, error) {
	buf := make([]byte, (modulus.BitLen()+7)/8)
	// only keep the bits the modulus needs so most draws are accepted
	mask := byte(0xff >> (uint(len(buf)*8 - modulus.BitLen())))

	out := new(saferith.Nat)
	for i := 0; i < maxIterations; i++ {
		_, err := io.ReadFull(rand, buf)
		if err != nil {
			return Element{}, xerrors.Errorf("failed to read randomness: %w", err)
		}
		buf[0] &= mask

		out.SetBytes(buf)
		_, _, lt := out.CmpMod(modulus)
		if lt == 1 {
			return reduce(out), nil
		}
	}

	return Element{}, ErrMaxIterations
}

func reduce(x *saferith.Nat) Element {
	return Element{n: new(saferith.Nat).Mod(x, modulus)}
}

func (e Element) nat() *saferith.Nat {
	if e.n == nil {
		return Zero().n
	}
	return e.n
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	return Element{n: new(saferith.Nat).ModAdd(e.nat(), o.nat(), modulus)}
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	return Element{n: new(saferith.Nat).ModSub(e.nat(), o.nat(), modulus)}
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	return Element{n: new(saferith.Nat).ModMul(e.nat(), o.nat(), modulus)}
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	return Element{n: new(saferith.Nat).ModNeg(e.nat(), modulus)}
}

// Equal tells if both elements hold the same value.
func (e Element) Equal(o Element) bool {
	return e.Uint64() == o.Uint64()
}

// IsZero tells if the element is 0.
func (e Element) IsZero() bool {
	return e.Uint64() == 0
}

// Uint64 returns the canonical representative of the element.
func (e Element) Uint64() uint64 {
	return e.Big().Uint64()
}

// Big returns the canonical representative as a fresh big.Int.
func (e Element) Big() *big.Int {
	return e.nat().Big()
}

// Bytes returns the minimal big-endian encoding of the element. Zero is
// encoded as the empty slice.
func (e Element) Bytes() []byte {
	return e.Big().Bytes()
}

// String implements fmt.Stringer.
func (e Element) String() string {
	return strconv.FormatUint(e.Uint64(), 10)
}
