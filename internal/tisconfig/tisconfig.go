// Package tisconfig loads the optional grid-wiring file accepted by
// cmd/tisvm's -c/--config flag: which edge slots get bound to which
// buffers, and an override for the tick budget. The wiring is data
// generalized from mains/singleblock.c's hardcoded single-block setup
// in original_source/ (spec.md's runner CLI binds exactly one input
// and one output slot; this format extends that to arbitrary grids).
package tisconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"tisvm/isa"
)

// Slot is one edge binding: a side/index pair plus the buffer's
// requested capacity and, for inputs, its initial contents.
type Slot struct {
	Side  string `toml:"side"`
	Index int    `toml:"index"`
	// Kind is "input" or "output".
	Kind string `toml:"kind"`
	// Bytes seeds an input slot's buffer; ignored for outputs.
	Bytes []int `toml:"bytes"`
	// Capacity sizes an output slot's buffer; ignored for inputs.
	Capacity int `toml:"capacity"`
}

// Config is the decoded contents of a grid-wiring TOML file.
type Config struct {
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	MaxTicks int    `toml:"max_ticks"`
	Slots    []Slot `toml:"slot"`
}

// Load reads and decodes a grid-wiring file from path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("tisconfig: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Config{}, fmt.Errorf("tisconfig: width and height must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Side resolves the slot's side string to its isa.Target constant.
func (s Slot) Side() (isa.Target, error) {
	t, ok := isa.TargetByName(s.Side)
	if !ok || !t.IsSide() || t == isa.Any {
		return 0, fmt.Errorf("tisconfig: %q is not a valid edge side", s.Side)
	}
	return t, nil
}

// InputBuffer materializes the slot's seed bytes as a []byte buffer.
func (s Slot) InputBuffer() []byte {
	buf := make([]byte, len(s.Bytes))
	for i, v := range s.Bytes {
		buf[i] = byte(v)
	}
	return buf
}

// OutputBuffer allocates a zeroed buffer of the slot's capacity.
func (s Slot) OutputBuffer() []byte {
	return make([]byte, s.Capacity)
}

// ReadBytecodeFile is a small helper cmd/tisvm uses for reading a raw
// file off disk with a consistent error wrapper.
func ReadBytecodeFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tisconfig: reading %s: %w", path, err)
	}
	return data, nil
}
