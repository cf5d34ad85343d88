// Package config loads the four scalar configuration fields enumerated in
// §6 from a config.<ENV>.json file, mirroring
// original_source/twoparty-server/src/config/mod.rs.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config holds the process-wide settings named in §6.
type Config struct {
	ServerPort       uint16 `json:"server_port"`
	Env              string `json:"env"`
	WSServerIdle     uint8  `json:"ws_server_idle"`
	WSClientInterval uint8  `json:"ws_client_interval"`
}

// Defaults returns the fallback configuration applied for missing fields.
func Defaults() Config {
	return Config{
		ServerPort:       8080,
		Env:              "development",
		WSServerIdle:     60,
		WSClientInterval: 20,
	}
}

// Load reads config.<ENV>.json from dir, where ENV is taken from the ENV
// environment variable (default "development"). Missing scalar fields in
// the file keep their Defaults() value.
func Load(dir string) (Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	cfg := Defaults()
	cfg.Env = env

	path := filepath.Join(dir, "config."+env+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.WithMessage(err, "config: failed to read config file")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WithMessage(err, "config: failed to parse config file")
	}
	return cfg, nil
}
