package cmd

import (
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
	"golang.org/x/xerrors"
)

// PartyConfig is the configuration of one participant.
type PartyConfig struct {
	ID           string   `yaml:"id"`
	Relay        string   `yaml:"relay"`
	Participants []string `yaml:"participants"`
	Expression   string   `yaml:"expression"`

	// Secrets maps the name of each owned secret to its value. A secret
	// without value is asked for interactively.
	Secrets map[string]*int64 `yaml:"secrets"`

	// Timeout bounds the whole run, e.g. "30s". Empty means no bound.
	Timeout string `yaml:"timeout"`
}

// RelayConfig is the configuration of the relay.
type RelayConfig struct {
	Listen       string   `yaml:"listen"`
	Participants []string `yaml:"participants"`

	// TripletStore is the path of the bolt file caching the triplets. Empty
	// means the triplets are kept in memory.
	TripletStore string `yaml:"tripletStore"`
}

// SimulationConfig describes a computation run in a single process.
type SimulationConfig struct {
	Expression string        `yaml:"expression"`
	Parties    []PartyInputs `yaml:"parties"`
}

// PartyInputs are the secrets of one simulated participant.
type PartyInputs struct {
	ID      string           `yaml:"id"`
	Secrets map[string]int64 `yaml:"secrets"`
}

// PartyConfigFromYAML reads a party configuration.
func PartyConfigFromYAML(path string) (*PartyConfig, error) {
	conf := PartyConfig{}
	err := readYAML(path, &conf)
	if err != nil {
		return nil, err
	}

	err = conf.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid config %s: %w", path, err)
	}

	return &conf, nil
}

// Validate checks the configuration is complete.
func (c *PartyConfig) Validate() error {
	if c.ID == "" {
		return xerrors.New("missing id")
	}
	if c.Relay == "" {
		return xerrors.New("missing relay")
	}
	if c.Expression == "" {
		return xerrors.New("missing expression")
	}

	err := checkParticipants(c.Participants)
	if err != nil {
		return err
	}

	for _, p := range c.Participants {
		if p == c.ID {
			return nil
		}
	}
	return xerrors.Errorf("%s is not in the participants", c.ID)
}

// GetTimeout returns the parsed timeout, zero if none.
func (c *PartyConfig) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, xerrors.Errorf("invalid timeout: %w", err)
	}
	return d, nil
}

// SecretNames returns the names of the owned secrets, sorted.
func (c *PartyConfig) SecretNames() []string {
	names := make([]string, 0, len(c.Secrets))
	for name := range c.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RelayConfigFromYAML reads a relay configuration.
func RelayConfigFromYAML(path string) (*RelayConfig, error) {
	conf := RelayConfig{}
	err := readYAML(path, &conf)
	if err != nil {
		return nil, err
	}

	err = conf.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid config %s: %w", path, err)
	}

	return &conf, nil
}

// Validate checks the configuration is complete.
func (c *RelayConfig) Validate() error {
	if c.Listen == "" {
		return xerrors.New("missing listen address")
	}
	return checkParticipants(c.Participants)
}

// SimulationConfigFromYAML reads a simulation.
func SimulationConfigFromYAML(path string) (*SimulationConfig, error) {
	conf := SimulationConfig{}
	err := readYAML(path, &conf)
	if err != nil {
		return nil, err
	}

	err = conf.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid config %s: %w", path, err)
	}

	return &conf, nil
}

// Validate checks the simulation is complete.
func (c *SimulationConfig) Validate() error {
	if c.Expression == "" {
		return xerrors.New("missing expression")
	}
	return checkParticipants(c.Participants())
}

// Participants returns the participants in their canonical order.
func (c *SimulationConfig) Participants() []string {
	res := make([]string, len(c.Parties))
	for i, p := range c.Parties {
		res[i] = p.ID
	}
	return res
}

func checkParticipants(participants []string) error {
	if len(participants) == 0 {
		return xerrors.New("no participants")
	}

	seen := map[string]struct{}{}
	for _, p := range participants {
		if p == "" {
			return xerrors.New("empty participant id")
		}

		_, found := seen[p]
		if found {
			return xerrors.Errorf("participant %s listed twice", p)
		}
		seen[p] = struct{}{}
	}

	return nil
}

func readYAML(path string, out interface{}) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("failed to read %s: %w", path, err)
	}

	err = yaml.Unmarshal(yamlFile, out)
	if err != nil {
		return xerrors.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
