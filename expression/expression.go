// Package expression defines the arithmetic expressions evaluated by the
// parties. An expression is an immutable tree of Scalar, Secret, Add, Sub and
// Mult nodes. Every node knows at construction whether a Secret lives below it.
package expression

import (
	"fmt"

	"github.com/rs/xid"
	"go.dedis.ch/smc/field"
)

// NamedSecretPrefix prefixes the identity of secrets created from a name, so
// that every participant parsing the same expression agrees on the identities.
const NamedSecretPrefix = "secret:"

// Expression is implemented by the five node types of this package only.
type Expression interface {
	// ID returns the stable identity of the node.
	ID() string
	// IsPrivate tells if the node or one of its descendants is a Secret.
	IsPrivate() bool

	String() string

	expression()
}

type node struct {
	id      string
	private bool
}

func (n node) ID() string      { return n.id }
func (n node) IsPrivate() bool { return n.private }
func (node) expression()       {}

func genID() string {
	return xid.New().String()
}

// -----------------------------------------------------------------------------
// Leaves

// Scalar is a public constant, known by every participant.
type Scalar struct {
	node
	value field.Element
}

// NewScalar creates a scalar reduced in the field.
func NewScalar(v int64) *Scalar {
	return NewScalarElement(field.New(v))
}

// NewScalarElement creates a scalar from a field element.
func NewScalarElement(v field.Element) *Scalar {
	return &Scalar{node: node{id: genID()}, value: v}
}

// Value returns the constant.
func (s *Scalar) Value() field.Element {
	return s.value
}

func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%s)", s.value)
}

// Secret is a private input owned by exactly one participant. The owner's value
// is normally given to the party separately; the tree only carries it when
// built with NewSecretWithValue, in which case anyone holding the tree knows
// it and the leader contributes it.
type Secret struct {
	node
	name  string
	value *field.Element
}

// NewSecret creates a secret with a fresh random identity.
func NewSecret() *Secret {
	return NewSecretWithID(genID())
}

// NewSecretWithID creates a secret with the given identity.
func NewSecretWithID(id string) *Secret {
	return &Secret{node: node{id: id, private: true}}
}

// NewSecretWithValue creates a secret carrying its value.
func NewSecretWithValue(v int64) *Secret {
	s := NewSecret()
	e := field.New(v)
	s.value = &e
	return s
}

// NamedSecret creates a secret whose identity derives from its name.
func NamedSecret(name string) *Secret {
	s := NewSecretWithID(NamedSecretPrefix + name)
	s.name = name
	return s
}

// Name returns the name of a secret built with NamedSecret.
func (s *Secret) Name() string {
	return s.name
}

// Value returns the value carried by the node, if any.
func (s *Secret) Value() (field.Element, bool) {
	if s.value == nil {
		return field.Element{}, false
	}
	return *s.value, true
}

// String never prints a carried value, trees end up in logs.
func (s *Secret) String() string {
	if s.name != "" {
		return s.name
	}
	return "Secret()"
}

// -----------------------------------------------------------------------------
// Operations

type binary struct {
	node
	left  Expression
	right Expression
}

func newBinary(left, right Expression) binary {
	return binary{
		node:  node{id: genID(), private: left.IsPrivate() || right.IsPrivate()},
		left:  left,
		right: right,
	}
}

// Left returns the left operand.
func (b binary) Left() Expression { return b.left }

// Right returns the right operand.
func (b binary) Right() Expression { return b.right }

// Add is the sum of two expressions.
type Add struct {
	binary
}

// NewAdd returns left + right.
func NewAdd(left, right Expression) *Add {
	return &Add{binary: newBinary(left, right)}
}

func (a *Add) String() string {
	return fmt.Sprintf("(%s + %s)", a.left, a.right)
}

// Sub is the difference of two expressions.
type Sub struct {
	binary
}

// NewSub returns left - right.
func NewSub(left, right Expression) *Sub {
	return &Sub{binary: newBinary(left, right)}
}

func (s *Sub) String() string {
	return fmt.Sprintf("(%s - %s)", s.left, s.right)
}

// Mult is the product of two expressions.
type Mult struct {
	binary
}

// NewMult returns left * right.
func NewMult(left, right Expression) *Mult {
	return &Mult{binary: newBinary(left, right)}
}

func (m *Mult) String() string {
	return fmt.Sprintf("%s * %s", m.left, m.right)
}

// -----------------------------------------------------------------------------
// Helpers

// Sum folds the expressions with Add, left to right.
func Sum(first Expression, others ...Expression) Expression {
	res := first
	for _, e := range others {
		res = NewAdd(res, e)
	}
	return res
}

// Product folds the expressions with Mult, left to right.
func Product(first Expression, others ...Expression) Expression {
	res := first
	for _, e := range others {
		res = NewMult(res, e)
	}
	return res
}

// Walk visits e and all its descendants in pre-order. It stops descending
// below a node when fn returns false.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch n := e.(type) {
	case *Add:
		Walk(n.left, fn)
		Walk(n.right, fn)
	case *Sub:
		Walk(n.left, fn)
		Walk(n.right, fn)
	case *Mult:
		Walk(n.left, fn)
		Walk(n.right, fn)
	}
}

// Secrets returns the distinct secrets of e, by order of first occurrence.
func Secrets(e Expression) []*Secret {
	seen := map[string]struct{}{}
	secrets := []*Secret{}

	Walk(e, func(n Expression) bool {
		s, ok := n.(*Secret)
		if !ok {
			return true
		}
		if _, found := seen[s.ID()]; !found {
			seen[s.ID()] = struct{}{}
			secrets = append(secrets, s)
		}
		return true
	})

	return secrets
}
