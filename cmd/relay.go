package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/smc/relay"
	"go.dedis.ch/smc/storage"
	"go.dedis.ch/smc/ttp"
	"golang.org/x/xerrors"
)

// NewRelay builds the relay described by conf. The returned store must be
// closed once the relay stops.
func NewRelay(conf *RelayConfig) (*relay.Server, storage.KVStore, error) {
	var store storage.KVStore = storage.NewBasicKV()

	if conf.TripletStore != "" {
		bolt, err := storage.NewBoltKV(conf.TripletStore)
		if err != nil {
			return nil, nil, xerrors.Errorf("failed to open triplet store: %w", err)
		}
		store = bolt
	}

	generator := ttp.NewGenerator(store)
	for _, p := range conf.Participants {
		generator.AddParticipant(p)
	}

	return relay.NewServer(generator), store, nil
}

// RunRelay serves the relay until ctx is done.
func RunRelay(ctx context.Context, conf *RelayConfig) error {
	server, store, err := NewRelay(conf)
	if err != nil {
		return err
	}

	defer func() {
		err := store.Close()
		if err != nil {
			log.Err(err).Msg("failed to close triplet store")
		}
	}()

	log.Info().Msgf("relay for %v", conf.Participants)

	return server.ListenAndServe(ctx, conf.Listen)
}
