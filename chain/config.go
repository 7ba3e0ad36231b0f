// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"time"

	"gopkg.in/yaml.v2"
)

// BlockBuilderConfig holds the recognized per-builder configuration
// options, including the configurable empty-batch sleep.
type BlockBuilderConfig struct {
	TxChunkSize     int           `yaml:"tx_chunk_size"`
	WorkerPoolSize  int           `yaml:"worker_pool_size"`
	FailOnErr       bool          `yaml:"fail_on_err"`
	EmptyBatchSleep time.Duration `yaml:"empty_batch_sleep"`
}

// DefaultBlockBuilderConfig returns sane defaults (1s empty-batch sleep,
// a 4-worker pool, strict fail-on-err mode).
func DefaultBlockBuilderConfig() BlockBuilderConfig {
	return BlockBuilderConfig{
		TxChunkSize:     100,
		WorkerPoolSize:  4,
		FailOnErr:       true,
		EmptyBatchSleep: time.Second,
	}
}

// Dump serializes the config to YAML.
func (c BlockBuilderConfig) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadBlockBuilderConfig parses a YAML-encoded BlockBuilderConfig.
func LoadBlockBuilderConfig(data []byte) (BlockBuilderConfig, error) {
	c := DefaultBlockBuilderConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return BlockBuilderConfig{}, err
	}
	return c, nil
}
