package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/expression"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/peer"
	"go.dedis.ch/smc/peer/impl/mpc"
	"go.dedis.ch/smc/relay"
	"golang.org/x/xerrors"
)

// ErrParticipantsMismatch is returned when the relay deals triplets to another
// set of participants than the one of the party configuration.
var ErrParticipantsMismatch = xerrors.New("participants mismatch")

// partyValues resolves the secrets of conf against the expression. Values
// missing from conf are asked with ask.
func partyValues(conf *PartyConfig, secrets map[string]*expression.Secret,
	ask AskFunc) (map[*expression.Secret]field.Element, error) {

	values := map[*expression.Secret]field.Element{}

	for _, name := range conf.SecretNames() {
		node, found := secrets[name]
		if !found {
			// still announced, so that nobody else can claim it
			log.Warn().Msgf("%s: secret %s is not used by the expression", conf.ID, name)
			node = expression.NamedSecret(name)
		}

		v := conf.Secrets[name]
		if v == nil {
			if ask == nil {
				return nil, xerrors.Errorf("no value for %s", name)
			}

			answer, err := ask(name)
			if err != nil {
				return nil, xerrors.Errorf("failed to get %s: %w", name, err)
			}
			v = &answer
		}

		values[node] = field.New(*v)
	}

	return values, nil
}

// RunParty joins the computation described by conf through its relay and
// returns the result.
func RunParty(ctx context.Context, conf *PartyConfig, ask AskFunc) (field.Element, error) {
	expr, secrets, err := expression.Parse(conf.Expression)
	if err != nil {
		return field.Element{}, err
	}

	values, err := partyValues(conf, secrets, ask)
	if err != nil {
		return field.Element{}, err
	}

	timeout, err := conf.GetTimeout()
	if err != nil {
		return field.Element{}, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	client := relay.NewTransport(conf.Relay).Client(conf.ID)

	spec := peer.ProtocolSpec{
		Expr:         expr,
		Participants: conf.Participants,
	}

	registered, err := client.Participants(ctx)
	if err != nil {
		return field.Element{}, xerrors.Errorf("failed to get relay participants: %w", err)
	}
	if !spec.Matches(registered) {
		return field.Element{}, xerrors.Errorf("relay deals to %v, not to %v: %w",
			registered, conf.Participants, ErrParticipantsMismatch)
	}

	pconf := peer.Configuration{
		Socket:   client,
		Triplets: client,
	}

	log.Info().Msgf("%s: computing %s with %v", conf.ID, expr, conf.Participants)

	result, err := mpc.NewParty(&pconf, spec, values).Run(ctx)
	if err != nil {
		return field.Element{}, err
	}

	printResult(conf.ID, result)

	return result, nil
}
