package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// Overlay is the optional YAML file named by SSS_CONFIG_FILE.
type Overlay struct {
	Authority          string            `yaml:"authority"`
	Mint               string            `yaml:"mint"`
	Token              *token.Definition `yaml:"token"`
	CheckpointSchedule string            `yaml:"checkpoint_schedule"`
	SuspicionScript    string            `yaml:"suspicion_script"`
	ProgramID          string            `yaml:"program_id"`
}

// LoadOverlay reads and parses an overlay file.
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config overlay: %w", err)
	}

	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse config overlay: %w", err)
	}
	if o.Token != nil {
		if _, err := o.Token.Resolve(); err != nil {
			return nil, fmt.Errorf("config overlay token: %w", err)
		}
	}
	return &o, nil
}

// apply copies every non-empty overlay field onto cfg.
func (o *Overlay) apply(cfg *Config) {
	if o.Authority != "" {
		cfg.Authority = o.Authority
	}
	if o.Mint != "" {
		cfg.Mint = o.Mint
	}
	if o.Token != nil {
		cfg.Token = *o.Token
	}
	if o.CheckpointSchedule != "" {
		cfg.CheckpointSchedule = o.CheckpointSchedule
	}
	if o.SuspicionScript != "" {
		cfg.SuspicionScript = o.SuspicionScript
	}
	if o.ProgramID != "" {
		cfg.ProgramID = o.ProgramID
	}
}
