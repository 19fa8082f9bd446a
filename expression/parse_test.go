package expression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_parse_simple(t *testing.T) {
	expr, secrets, err := Parse("a+b")
	require.NoError(t, err)
	require.Equal(t, "(a + b)", expr.String())
	require.Len(t, secrets, 2)
	require.Equal(t, NamedSecretPrefix+"a", secrets["a"].ID())
}

func Test_parse_precedence(t *testing.T) {
	cases := map[string]string{
		"a + b * c":         "(a + b * c)",
		"(a + b) * c":       "(a + b) * c",
		"a - b - c":         "((a - b) - c)",
		"a * b * c":         "a * b * c",
		"alice * (bob + 3)": "alice * (bob + Scalar(3))",
		" 15 * 8 ":          "Scalar(15) * Scalar(8)",
		"x_1 - 5 + 4":       "((x_1 - Scalar(5)) + Scalar(4))",
	}

	for infix, expected := range cases {
		expr, _, err := Parse(infix)
		require.NoError(t, err, infix)
		require.Equal(t, expected, expr.String(), infix)
	}
}

func Test_parse_same_name_same_node(t *testing.T) {
	expr, secrets, err := Parse("a * a + b")
	require.NoError(t, err)
	require.Len(t, secrets, 2)

	add, ok := expr.(*Add)
	require.True(t, ok)
	mult, ok := add.Left().(*Mult)
	require.True(t, ok)
	require.Same(t, mult.Left(), mult.Right())
	require.Same(t, secrets["a"], mult.Left())
}

func Test_parse_privacy(t *testing.T) {
	expr, secrets, err := Parse("3 * (4 + 5)")
	require.NoError(t, err)
	require.Empty(t, secrets)
	require.False(t, expr.IsPrivate())

	expr, _, err = Parse("3 * (4 + a)")
	require.NoError(t, err)
	require.True(t, expr.IsPrivate())
}

func Test_parse_invalid(t *testing.T) {
	invalid := []string{
		"",
		"a / b",
		"a ^ 2",
		"-a",
		"a +",
		"(a + b",
		"a + b)",
		"()",
		"3a",
		"a $ b",
		"99999999999999999999",
		"a b",
		"12 34",
		"a + b c",
		"(a) (b)",
	}

	for _, infix := range invalid {
		_, _, err := Parse(infix)
		require.ErrorIs(t, err, ErrInvalidExpression, infix)
	}
}
