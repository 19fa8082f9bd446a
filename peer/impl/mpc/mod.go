// Package mpc implements a party of the secure multi-party computation. The
// parties secret-share their inputs additively, evaluate the expression on
// their shares, multiply with Beaver triplets, and finally reveal the sum of
// their result shares.
package mpc

import (
	"context"
	"crypto/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/expression"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/peer"
	"go.dedis.ch/smc/secretshare"
	"go.dedis.ch/smc/types"
	"golang.org/x/xerrors"
)

const (
	secretIDsTag = "secret-ids"
	finalTag     = "final"
)

var (
	// ErrUnrecognizedExpression is returned when the evaluator meets a node it
	// does not know.
	ErrUnrecognizedExpression = xerrors.New("unrecognized expression")

	// ErrUnknownSecret is returned when a secret was never announced.
	ErrUnknownSecret = xerrors.New("unknown secret")

	// ErrDuplicateSecret is returned when two participants announce the same
	// secret.
	ErrDuplicateSecret = xerrors.New("duplicate secret")

	// ErrNotParticipant is returned when the party is not listed in the
	// ProtocolSpec.
	ErrNotParticipant = xerrors.New("not a participant")

	// ErrTripletMismatch is returned when a triplet was not split over the
	// participants of the computation. Its shares would not add up.
	ErrTripletMismatch = xerrors.New("triplet dealt to other participants")
)

var _ peer.Party = (*Party)(nil)

// Party runs the protocol for one participant.
//
// - implements peer.Party
type Party struct {
	conf   *peer.Configuration
	spec   peer.ProtocolSpec
	values map[*expression.Secret]field.Element
}

// NewParty creates a party owning the given secret values.
func NewParty(conf *peer.Configuration, spec peer.ProtocolSpec,
	values map[*expression.Secret]field.Element) *Party {

	if conf.Rand == nil {
		conf.Rand = rand.Reader
	}
	if values == nil {
		values = map[*expression.Secret]field.Element{}
	}

	return &Party{
		conf:   conf,
		spec:   spec,
		values: values,
	}
}

// Run implements peer.Party. Every run starts from a fresh session.
func (p *Party) Run(ctx context.Context) (field.Element, error) {
	err := p.validate()
	if err != nil {
		return field.Element{}, err
	}

	// no secret involved: everyone knows the result already
	if !p.spec.Expr.IsPrivate() {
		log.Debug().Msgf("%s: public expression, no round needed", p.id())
		return publicValue(p.spec.Expr)
	}

	s := newSession()

	err = p.exchangeIdentities(ctx, s)
	if err != nil {
		return field.Element{}, xerrors.Errorf("identity exchange failed: %w", err)
	}

	err = p.distributeShares(ctx, s)
	if err != nil {
		return field.Element{}, xerrors.Errorf("share distribution failed: %w", err)
	}

	share, err := p.evaluate(ctx, s, p.spec.Expr)
	if err != nil {
		return field.Element{}, xerrors.Errorf("evaluation failed: %w", err)
	}

	result, err := p.reveal(ctx, finalTag, share)
	if err != nil {
		return field.Element{}, xerrors.Errorf("reveal failed: %w", err)
	}

	log.Info().Msgf("%s: result is %s", p.id(), result)

	return result, nil
}

func (p *Party) validate() error {
	if p.spec.Expr == nil {
		return xerrors.Errorf("no expression: %w", ErrUnrecognizedExpression)
	}
	if p.conf.Socket == nil {
		return xerrors.Errorf("no socket configured")
	}
	if p.spec.Index(p.id()) < 0 {
		return xerrors.Errorf("%s: %w", p.id(), ErrNotParticipant)
	}

	seen := map[string]struct{}{}
	for _, id := range p.spec.Participants {
		_, found := seen[id]
		if found {
			return xerrors.Errorf("participant %s listed twice", id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

func (p *Party) id() string {
	return p.conf.Socket.GetAddress()
}

func (p *Party) isLeader() bool {
	return p.id() == p.spec.Leader()
}

// ownedIDs returns the ids of the secrets held by the party, sorted.
func (p *Party) ownedIDs() []string {
	ids := make([]string, 0, len(p.values))
	for secret := range p.values {
		ids = append(ids, secret.ID())
	}
	sort.Strings(ids)
	return ids
}

// ownValue returns the value of one of the party's secrets.
func (p *Party) ownValue(id string) (field.Element, bool) {
	for secret, value := range p.values {
		if secret.ID() == id {
			return value, true
		}
	}
	return field.Element{}, false
}

// exchangeIdentities announces the party's secrets and learns who owns every
// other secret.
func (p *Party) exchangeIdentities(ctx context.Context, s *session) error {
	msg := types.SecretIDsMessage{
		Owner: p.id(),
		IDs:   p.ownedIDs(),
	}

	buf, err := types.Marshal(msg)
	if err != nil {
		return err
	}

	err = p.conf.Socket.Publish(ctx, secretIDsTag, buf)
	if err != nil {
		return xerrors.Errorf("failed to publish ids: %w", err)
	}

	for _, participant := range p.spec.Participants {
		payload, err := p.conf.Socket.RetrievePublic(ctx, participant, secretIDsTag)
		if err != nil {
			return err
		}

		err = p.processSecretIDs(s, participant, payload)
		if err != nil {
			return err
		}
	}

	log.Debug().Msgf("%s: %d secrets announced", p.id(), len(s.owners))

	return nil
}

// distributeShares splits each owned secret over the participants, sends every
// participant its shares in one bundle and collects the bundles sent to us.
func (p *Party) distributeShares(ctx context.Context, s *session) error {
	n := len(p.spec.Participants)

	bundles := make([]types.ShareBundleMessage, n)
	for i := range bundles {
		bundles[i] = types.ShareBundleMessage{
			Owner:  p.id(),
			Shares: map[string][]byte{},
		}
	}

	for secret, value := range p.values {
		shares, err := secretshare.Split(p.conf.Rand, value, n)
		if err != nil {
			return xerrors.Errorf("failed to split %s: %w", secret.ID(), err)
		}

		for i, share := range shares {
			bundles[i].Shares[secret.ID()] = share.Bytes()
		}
	}

	for i, receiver := range p.spec.Participants {
		buf, err := types.Marshal(bundles[i])
		if err != nil {
			return err
		}

		err = p.conf.Socket.SendPrivate(ctx, receiver, buf)
		if err != nil {
			return xerrors.Errorf("failed to send shares to %s: %w", receiver, err)
		}
	}

	for _, sender := range p.spec.Participants {
		payload, err := p.conf.Socket.RetrievePrivate(ctx, sender)
		if err != nil {
			return err
		}

		err = p.processShareBundle(s, sender, payload)
		if err != nil {
			return err
		}
	}

	log.Debug().Msgf("%s: received %d shares", p.id(), len(s.shares))

	return nil
}

// reveal publishes share under tag and reconstructs the value from everyone's
// share.
func (p *Party) reveal(ctx context.Context, tag string, share secretshare.Share) (field.Element, error) {
	err := p.publish(ctx, tag, share)
	if err != nil {
		return field.Element{}, err
	}
	return p.collect(ctx, tag)
}

func (p *Party) publish(ctx context.Context, tag string, share secretshare.Share) error {
	err := p.conf.Socket.Publish(ctx, tag, share.Bytes())
	if err != nil {
		return xerrors.Errorf("failed to publish %s: %w", tag, err)
	}
	return nil
}

// collect reads the share published by every participant under tag and
// returns their sum.
func (p *Party) collect(ctx context.Context, tag string) (field.Element, error) {
	shares := make([]secretshare.Share, len(p.spec.Participants))

	for i, participant := range p.spec.Participants {
		payload, err := p.conf.Socket.RetrievePublic(ctx, participant, tag)
		if err != nil {
			return field.Element{}, err
		}
		shares[i] = secretshare.ShareFromBytes(payload)
	}

	return secretshare.Reconstruct(shares), nil
}
