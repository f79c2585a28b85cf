// Copyright (c) 2024-2026, The LoRaSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package sim wires multiple radios into a shared simulated channel and
// exposes the operations the CLI drives.
package sim

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNumNodes   = 3
	DefaultHopLimit   = 3
	DefaultTxQueueLen = 16
)

type Config struct {
	NumNodes   int    `yaml:"numNodes"`
	Seed       int64  `yaml:"seed"` // 0 selects a time-based seed
	TxQueueLen int    `yaml:"txQueueLen"`
	HopLimit   uint8  `yaml:"hopLimit"`
	FloodRelay bool   `yaml:"floodRelay"` // nodes rebroadcast packets they receive
	PcapFile   string `yaml:"pcapFile"`   // empty disables capture
	LogLevel   string `yaml:"logLevel"`
}

func DefaultConfig() *Config {
	return &Config{
		NumNodes:   DefaultNumNodes,
		Seed:       0,
		TxQueueLen: DefaultTxQueueLen,
		HopLimit:   DefaultHopLimit,
		FloodRelay: true,
		PcapFile:   "",
		LogLevel:   "info",
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.NumNodes < 1 {
		return nil, errors.Errorf("config %s: numNodes must be >= 1", path)
	}
	return cfg, nil
}
