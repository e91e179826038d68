// Package file loads the bootstrap configuration from a TOML file.
// Values set in the file overlay the built-in defaults, so a minimal
// config only needs the keys it changes.
package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/monetci/monetup/internal/core/domain"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "monetup.toml"

// Load reads the configuration at path on top of the defaults.
//
// When explicit is false and the file does not exist, the defaults are
// returned as-is. When explicit is true a missing file is an error,
// since the user asked for that file specifically.
func Load(path string, explicit bool) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("parsing config %s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
