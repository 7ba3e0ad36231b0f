// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bouncer

import "gopkg.in/yaml.v2"

// Dump serializes the config to YAML.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadConfig parses a YAML-encoded Config.
func LoadConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
