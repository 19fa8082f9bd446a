package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/expression"
	"go.dedis.ch/smc/field"
	"go.dedis.ch/smc/peer"
	"go.dedis.ch/smc/peer/impl/mpc"
	"go.dedis.ch/smc/transport/channel"
	"go.dedis.ch/smc/ttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Simulate runs every party of conf in this process, over an in-process
// transport, and returns the result each party computed.
func Simulate(ctx context.Context, conf *SimulationConfig) (map[string]field.Element, error) {
	expr, secrets, err := expression.Parse(conf.Expression)
	if err != nil {
		return nil, err
	}

	participants := conf.Participants()

	trans := channel.NewTransport()
	generator := ttp.NewGenerator(nil)
	for _, p := range participants {
		generator.AddParticipant(p)
	}

	spec := peer.ProtocolSpec{Expr: expr, Participants: participants}
	results := make([]field.Element, len(participants))

	parties := make([]*mpc.Party, len(conf.Parties))

	for i, inputs := range conf.Parties {
		values := map[*expression.Secret]field.Element{}
		for name, v := range inputs.Secrets {
			node, found := secrets[name]
			if !found {
				return nil, xerrors.Errorf("%s owns %s which is not in the expression", inputs.ID, name)
			}
			values[node] = field.New(v)
		}

		socket, err := trans.CreateSocket(inputs.ID)
		if err != nil {
			return nil, err
		}

		pconf := peer.Configuration{
			Socket:   socket,
			Triplets: generator,
		}
		parties[i] = mpc.NewParty(&pconf, spec, values)
	}

	g, ctx := errgroup.WithContext(ctx)

	for i, party := range parties {
		i, party := i, party

		g.Go(func() error {
			res, err := party.Run(ctx)
			if err != nil {
				return xerrors.Errorf("%s failed: %w", participants[i], err)
			}
			results[i] = res
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	n, err := generator.Len()
	if err != nil {
		return nil, err
	}
	public, private := trans.Len()
	log.Info().Msgf("simulation done: %d triplets, %d public and %d private messages", n, public, private)

	out := make(map[string]field.Element, len(participants))
	for i, p := range participants {
		out[p] = results[i]
	}

	return out, nil
}
