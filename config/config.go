// Package config loads mediaseal's toml configuration, following the
// teacher's lenient Read(path) pattern.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of config.toml.
type Config struct {
	Authority struct {
		DefaultName string `toml:"default_name"`
	} `toml:"authority"`
	Paths struct {
		KeysDir   string `toml:"keys_dir"`
		OutputDir string `toml:"output_dir"`
	} `toml:"paths"`
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
}

func defaultConfig() Config {
	var c Config
	c.Paths.KeysDir = "keys"
	c.Paths.OutputDir = "output"
	c.Server.Addr = ":8080"
	return c
}

// Read decodes the toml file at path into a Config. A missing file is not
// an error: it yields the default configuration, since library code must
// not abort the process the way a CLI entry point might.
func Read(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
