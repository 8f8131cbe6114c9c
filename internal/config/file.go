package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up under the user's home directory when no
// explicit path is given.
const configFileName = ".wikiqa/config.yaml"

func resolveConfigPath(options loadOptions) string {
	if options.configPath != "" {
		return options.configPath
	}
	if path, ok := options.envLookup("WIKIQA_CONFIG"); ok && path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configFileName)
}

// applyFile merges the YAML config file into cfg. A missing file is not an
// error; a present-but-broken file is.
func applyFile(cfg *Config, options loadOptions) error {
	path := resolveConfigPath(options)
	if path == "" {
		return nil
	}

	data, err := options.readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
