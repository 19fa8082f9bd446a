package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	cli "go.dedis.ch/smc/cmd"
)

func main() {
	var logLevel string

	command := &cobra.Command{
		Use:   "smc",
		Short: "Secure multi-party computation over additive secret shares",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		SilenceUsage: true,
	}
	command.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	addRelayCmd(command)
	addPartyCmd(command)
	addSimulateCmd(command)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return xerrors.Errorf("invalid log level %q: %v", level, err)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	return nil
}

// addRelayCmd starts the relay
func addRelayCmd(command *cobra.Command) {
	var configPath string
	var listen string
	var participants []string
	var store string

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Start the relay",
		Long:  "Start the relay holding the public board, the private mailboxes and the triplet generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := &cli.RelayConfig{}

			if configPath != "" {
				var err error
				conf, err = cli.RelayConfigFromYAML(configPath)
				if err != nil {
					return err
				}
			}

			// flags override the file
			if cmd.Flags().Changed("listen") || conf.Listen == "" {
				conf.Listen = listen
			}
			if len(participants) > 0 {
				conf.Participants = participants
			}
			if store != "" {
				conf.TripletStore = store
			}

			err := conf.Validate()
			if err != nil {
				return err
			}

			return cli.RunRelay(cmd.Context(), conf)
		},
	}

	relayCmd.Flags().StringVarP(&configPath, "config", "c", "", "Relay configuration file")
	relayCmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:5000", "Listen address")
	relayCmd.Flags().StringSliceVarP(&participants, "participants", "p", nil, "Participant ids")
	relayCmd.Flags().StringVar(&store, "store", "", "Bolt file caching the triplets")

	command.AddCommand(relayCmd)
}

// addPartyCmd joins a computation
func addPartyCmd(command *cobra.Command) {
	var configPath string

	partyCmd := &cobra.Command{
		Use:   "party",
		Short: "Join a computation",
		Long:  "Join a computation through a relay; secrets without value in the configuration are prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cli.PartyConfigFromYAML(configPath)
			if err != nil {
				return err
			}

			_, err = cli.RunParty(cmd.Context(), conf, cli.AskSurvey)
			if err != nil {
				log.Err(err).Msg("computation failed")
			}
			return err
		},
	}

	partyCmd.Flags().StringVarP(&configPath, "config", "c", "party.yaml", "Party configuration file")

	command.AddCommand(partyCmd)
}

// addSimulateCmd runs every party in this process
func addSimulateCmd(command *cobra.Command) {
	var configPath string

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a computation with all parties in this process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cli.SimulationConfigFromYAML(configPath)
			if err != nil {
				return err
			}

			results, err := cli.Simulate(cmd.Context(), conf)
			if err != nil {
				log.Err(err).Msg("simulation failed")
				return err
			}

			ids := make([]string, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			lines := make([]string, len(ids))
			for i, id := range ids {
				lines[i] = fmt.Sprintf("%s: %s", id, results[id])
			}
			fmt.Println(strings.Join(lines, "\n"))

			return nil
		},
	}

	simulateCmd.Flags().StringVarP(&configPath, "config", "c", "simulation.yaml", "Simulation file")

	command.AddCommand(simulateCmd)
}
