// Package config holds the typed, hujson-loadable configuration structs for
// every component (spec §6), replacing the dynamic configuration objects the
// source system passed around.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/lattice-tok/pkg/gate"
	"github.com/calvinalkan/lattice-tok/pkg/keygen"
)

// Config is the full configuration surface for one tokenizer pipeline
// instance.
type Config struct {
	Gate      Gate      `json:"gate"`
	Sequencer Sequencer `json:"sequencer"`
	Ingest    Ingest    `json:"ingest"`
	Tokenizer Tokenizer `json:"tokenizer"`
	Lattice   Lattice   `json:"lattice"`
}

// LZCacheConfig wraps [gate.LZConfig] under the "cache" key spec §6 uses
// (`LZ gate: { cache.max: ... }`).
type LZCacheConfig struct {
	Cache gate.LZConfig `json:"cache"`
}

// Gate configures the two emission gates (spec §6). It is loaded and
// defaulted like every other block, but BuildGates does not read it: the
// gates a sequencer runs come from Sequencer.Gates alone.
type Gate struct {
	LZ  *LZCacheConfig  `json:"lz,omitempty"`
	MDL *gate.MDLConfig `json:"mdl,omitempty"`
}

// GateConfig names one gate in a sequencer's ordered gate list.
type GateConfig struct {
	Type string          `json:"type"` // "lz" or "mdl"
	LZ   *gate.LZConfig  `json:"lz,omitempty"`
	MDL  *gate.MDLConfig `json:"mdl,omitempty"`
}

const (
	gateTypeLZ  = "lz"
	gateTypeMDL = "mdl"
)

// Sequencer configures the ordered gate list and key-generator seed an
// IntSequencer is built with (spec §6).
type Sequencer struct {
	Gates            []GateConfig `json:"gates"`
	KeyGeneratorSeed uint32       `json:"keyGeneratorSeed"` //nolint:tagliatelle // spec §6 spells it keyGeneratorSeed
}

// Ingest configures the token buffer/commit batching (spec §6).
type Ingest struct {
	BatchSize   int  `json:"batchSize"`
	LogProgress bool `json:"logProgress"`
}

// Tokenizer configures the Viterbi decoder's node-potential weights
// (spec §6).
type Tokenizer struct {
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Lattice configures the persistent token/edge store (spec §6).
type Lattice struct {
	Path      string `json:"path"`
	CacheSize int    `json:"cacheSize"`
}

// Default returns the documented defaults for every component (spec §4,
// §6): α=0.1, β=0.02, c=0.7, τ=0.8 for MDL; tokenizer β=0.15, γ=0.1;
// batchSize=1000; LRU=1000; K=8 is fixed in pkg/lattice, not configurable.
func Default() Config {
	return Config{
		Gate: Gate{
			LZ:  &LZCacheConfig{Cache: gate.DefaultLZConfig()},
			MDL: ptr(gate.DefaultMDLConfig()),
		},
		Sequencer: Sequencer{
			Gates:            []GateConfig{{Type: gateTypeLZ}, {Type: gateTypeMDL}},
			KeyGeneratorSeed: keygen.DefaultSeed,
		},
		Ingest: Ingest{
			BatchSize:   1000,
			LogProgress: false,
		},
		Tokenizer: Tokenizer{
			Beta:  0.15,
			Gamma: 0.1,
		},
		Lattice: Lattice{
			CacheSize: 1000,
		},
	}
}

func ptr[T any](v T) *T { return &v }

var errLatticePathRequired = errors.New("config: lattice.path is required")

// Load reads a JSONC (hujson) config file at path, standardizes it to JSON,
// and unmarshals it over top of [Default]'s values - an absent field keeps
// its default, exactly like the teacher's own `LoadConfig` precedence
// layering, simplified to a single file since this module has no per-user
// global config file to merge with.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled by design
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()

	if err := parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if cfg.Lattice.Path == "" {
		return Config{}, fmt.Errorf("config: %q: %w", path, errLatticePathRequired)
	}

	return cfg, nil
}

func parse(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}

	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
