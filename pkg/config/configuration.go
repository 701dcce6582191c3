// Copyright 2024 ColMem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"

	"github.com/colmemio/colmem/pkg/logutil"
)

// MemoryParameters of the allocator and the buffers it hands out.
type MemoryParameters struct {
	//pool byte capacity. 0 means unlimited. default: 1 << 40 = 1099511627776
	PoolMaxSize int64 `toml:"poolMaxSize"`

	//regions of at least this many bytes are mmap backed. default: 1 << 20
	MmapThreshold int64 `toml:"mmapThreshold"`

	//whether buffers verify index bounds and refcnt liveness on access.
	//disabling trades safety for speed. default: true
	BoundsChecking bool `toml:"boundsChecking"`

	//set when boundsChecking was present in the file, so the default
	//can be told apart from an explicit false
	boundsCheckingSet bool
}

// Configuration is the whole toml file.
type Configuration struct {
	Memory MemoryParameters  `toml:"memory"`
	Log    logutil.LogConfig `toml:"log"`
}

// SetBoundsChecking sets the flag explicitly, so SetDefaults will not
// overwrite a programmatic false the way it fills an absent file key.
func (cfg *MemoryParameters) SetBoundsChecking(on bool) {
	cfg.BoundsChecking = on
	cfg.boundsCheckingSet = true
}

func (cfg *MemoryParameters) SetDefaults() {
	if cfg.PoolMaxSize == 0 {
		cfg.PoolMaxSize = 1 << 40
	}
	if cfg.MmapThreshold == 0 {
		cfg.MmapThreshold = 1 << 20
	}
	if !cfg.boundsCheckingSet {
		cfg.BoundsChecking = true
	}
}

func (cfg *Configuration) SetDefaults() {
	cfg.Memory.SetDefaults()
	cfg.Log.SetDefaults()
}

// LoadConfig reads a toml file and fills in defaults for absent keys.
func LoadConfig(path string) (*Configuration, error) {
	var cfg Configuration
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.Memory.boundsCheckingSet = meta.IsDefined("memory", "boundsChecking")
	cfg.SetDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	var cfg Configuration
	cfg.SetDefaults()
	return &cfg
}
