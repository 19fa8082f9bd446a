package expression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_expression_construction(t *testing.T) {
	a := NamedSecret("a")
	b := NamedSecret("b")
	c := NamedSecret("c")

	expr := NewAdd(NewMult(NewMult(NewAdd(a, b), c), NewScalar(4)), NewScalar(3))
	require.Equal(t, "((a + b) * c * Scalar(4) + Scalar(3))", expr.String())

	expr2 := NewAdd(NewAdd(a, b), NewAdd(a, b))
	require.Equal(t, "((a + b) + (a + b))", expr2.String())
}

func Test_expression_repr(t *testing.T) {
	// carried values stay out of the representation
	require.Equal(t, "Scalar(5) * Secret()", NewMult(NewScalar(5), NewSecretWithValue(2)).String())
	require.Equal(t, "(Scalar(5) - Secret())", NewSub(NewScalar(5), NewSecret()).String())
	require.Equal(t, "alice", NamedSecret("alice").String())
	require.Equal(t, "Scalar(7918)", NewScalar(-1).String())
}

func Test_expression_is_private(t *testing.T) {
	a := NewScalar(5)
	b := NewSecret()

	require.True(t, NewSub(a, b).IsPrivate())
	require.True(t, NewAdd(a, b).IsPrivate())
	require.False(t, a.IsPrivate())
	require.True(t, b.IsPrivate())
	require.True(t, NewMult(a, b).IsPrivate())

	require.False(t, NewMult(a, NewAdd(NewScalar(1), NewScalar(2))).IsPrivate())
	require.True(t, NewMult(NewScalar(1), NewSub(NewScalar(2), b)).IsPrivate())
}

func Test_expression_ids(t *testing.T) {
	a := NewSecret()
	b := NewSecret()
	require.NotEqual(t, a.ID(), b.ID())

	require.Equal(t, NamedSecretPrefix+"bob", NamedSecret("bob").ID())
	require.Equal(t, NamedSecret("bob").ID(), NamedSecret("bob").ID())
	require.Equal(t, "bob", NamedSecret("bob").Name())

	require.Equal(t, "abc", NewSecretWithID("abc").ID())

	add := NewAdd(a, b)
	require.Same(t, a, add.Left())
	require.Same(t, b, add.Right())
}

func Test_expression_secret_value(t *testing.T) {
	_, ok := NewSecret().Value()
	require.False(t, ok)

	v, ok := NewSecretWithValue(12).Value()
	require.True(t, ok)
	require.Equal(t, uint64(12), v.Uint64())
}

func Test_expression_helpers(t *testing.T) {
	a, b, c := NamedSecret("a"), NamedSecret("b"), NamedSecret("c")

	require.Equal(t, "((a + b) + c)", Sum(a, b, c).String())
	require.Equal(t, "a * b * c", Product(a, b, c).String())
	require.Same(t, a, Sum(a))

	expr := NewMult(NewAdd(a, b), NewSub(a, NewScalar(2)))
	secrets := Secrets(expr)
	require.Equal(t, []*Secret{a, b}, secrets)

	visited := 0
	Walk(expr, func(Expression) bool {
		visited++
		return true
	})
	require.Equal(t, 7, visited)

	// stop below the root
	visited = 0
	Walk(expr, func(Expression) bool {
		visited++
		return false
	})
	require.Equal(t, 1, visited)
}
