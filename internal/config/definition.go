package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// LoadDefinition reads a token definition, choosing the decoder by extension.
// .toml and .yaml/.yml files are supported; anything else is read as JSON.
func LoadDefinition(path string) (token.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return token.Definition{}, fmt.Errorf("read token definition: %w", err)
	}
	def, err := ParseDefinition(data, filepath.Ext(path))
	if err != nil {
		return token.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes data in the format named by ext and validates it.
func ParseDefinition(data []byte, ext string) (token.Definition, error) {
	var def token.Definition
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		if err := toml.Unmarshal(data, &def); err != nil {
			return token.Definition{}, fmt.Errorf("parse toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return token.Definition{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return token.Definition{}, fmt.Errorf("parse json: %w", err)
		}
	}
	if _, err := def.Resolve(); err != nil {
		return token.Definition{}, err
	}
	return def, nil
}
