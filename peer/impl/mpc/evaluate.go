package mpc

import (
	"context"

	"go.dedis.ch/smc/expression"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/secretshare"
	"golang.org/x/xerrors"
)

// evaluate returns the party's share of the value of e. Public values are
// contributed by the leader only, so that they count once in the final sum.
func (p *Party) evaluate(ctx context.Context, s *session, e expression.Expression) (secretshare.Share, error) {
	switch n := e.(type) {
	case *expression.Scalar:
		return p.public(n.Value()), nil

	case *expression.Secret:
		return p.lookup(s, n)

	case *expression.Add:
		left, right, err := p.evaluateBoth(ctx, s, n.Left(), n.Right())
		if err != nil {
			return secretshare.Share{}, err
		}
		return left.Add(right), nil

	case *expression.Sub:
		left, right, err := p.evaluateBoth(ctx, s, n.Left(), n.Right())
		if err != nil {
			return secretshare.Share{}, err
		}
		return left.Sub(right), nil

	case *expression.Mult:
		return p.evaluateMult(ctx, s, n)

	default:
		return secretshare.Share{}, xerrors.Errorf("%T: %w", e, ErrUnrecognizedExpression)
	}
}

func (p *Party) evaluateBoth(ctx context.Context, s *session,
	l, r expression.Expression) (secretshare.Share, secretshare.Share, error) {

	left, err := p.evaluate(ctx, s, l)
	if err != nil {
		return secretshare.Share{}, secretshare.Share{}, err
	}
	right, err := p.evaluate(ctx, s, r)
	if err != nil {
		return secretshare.Share{}, secretshare.Share{}, err
	}
	return left, right, nil
}

func (p *Party) evaluateMult(ctx context.Context, s *session, m *expression.Mult) (secretshare.Share, error) {
	l, r := m.Left(), m.Right()

	switch {
	case !l.IsPrivate() && !r.IsPrivate():
		v, err := publicValue(m)
		if err != nil {
			return secretshare.Share{}, err
		}
		return p.public(v), nil

	case !l.IsPrivate():
		return p.scale(ctx, s, l, r)

	case !r.IsPrivate():
		return p.scale(ctx, s, r, l)
	}

	// both sides are private: bring each to a secret, then Beaver
	x, err := p.operand(ctx, s, l)
	if err != nil {
		return secretshare.Share{}, err
	}
	y, err := p.operand(ctx, s, r)
	if err != nil {
		return secretshare.Share{}, err
	}

	return p.beaver(ctx, s, x, y)
}

// scale multiplies the share of the private expression by the public one.
func (p *Party) scale(ctx context.Context, s *session,
	public, private expression.Expression) (secretshare.Share, error) {

	k, err := publicValue(public)
	if err != nil {
		return secretshare.Share{}, err
	}
	share, err := p.evaluate(ctx, s, private)
	if err != nil {
		return secretshare.Share{}, err
	}
	return share.Scale(k), nil
}

// operand turns a private expression into a Beaver operand. A Secret is used
// as is, anything else is evaluated and materialized as a synthetic secret.
func (p *Party) operand(ctx context.Context, s *session, e expression.Expression) (operand, error) {
	secret, ok := e.(*expression.Secret)
	if ok {
		share, err := p.lookup(s, secret)
		if err != nil {
			return operand{}, err
		}

		owner, found := s.owners[secret.ID()]
		if !found {
			owner = p.id()
			if _, carried := secret.Value(); carried {
				owner = p.spec.Leader()
			}
		}

		return operand{id: secret.ID(), owner: owner, share: share}, nil
	}

	share, err := p.evaluate(ctx, s, e)
	if err != nil {
		return operand{}, err
	}

	return s.materialize(share), nil
}

// lookup returns the party's share of a secret: its share from the table, its
// own value, or else the value carried by the node, contributed by the leader.
func (p *Party) lookup(s *session, secret *expression.Secret) (secretshare.Share, error) {
	share, found := s.shares[secret.ID()]
	if found {
		return share, nil
	}

	value, found := p.ownValue(secret.ID())
	if found {
		return secretshare.NewShare(value), nil
	}

	// a value carried by the tree is known to every holder of the tree
	value, found = secret.Value()
	if found {
		return p.public(value), nil
	}

	return secretshare.Share{}, xerrors.Errorf("%s: %w", secret.ID(), ErrUnknownSecret)
}

// public returns the share of a public value: the value for the leader, zero
// for the others.
func (p *Party) public(v field.Element) secretshare.Share {
	if p.isLeader() {
		return secretshare.NewShare(v)
	}
	return secretshare.NewShare(field.Zero())
}

// publicValue computes an expression without secrets.
func publicValue(e expression.Expression) (field.Element, error) {
	switch n := e.(type) {
	case *expression.Scalar:
		return n.Value(), nil

	case *expression.Add, *expression.Sub, *expression.Mult:
		return publicBinary(e)

	case *expression.Secret:
		return field.Element{}, xerrors.Errorf("%s is not public", n)

	default:
		return field.Element{}, xerrors.Errorf("%T: %w", e, ErrUnrecognizedExpression)
	}
}

func publicBinary(e expression.Expression) (field.Element, error) {
	var l, r expression.Expression
	var op func(a, b field.Element) field.Element

	switch n := e.(type) {
	case *expression.Add:
		l, r, op = n.Left(), n.Right(), field.Element.Add
	case *expression.Sub:
		l, r, op = n.Left(), n.Right(), field.Element.Sub
	case *expression.Mult:
		l, r, op = n.Left(), n.Right(), field.Element.Mul
	}

	left, err := publicValue(l)
	if err != nil {
		return field.Element{}, err
	}
	right, err := publicValue(r)
	if err != nil {
		return field.Element{}, err
	}

	return op(left, right), nil
}
