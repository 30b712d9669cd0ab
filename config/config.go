// Package config loads the mvx configuration file.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/mvx/cpu"
	"github.com/ezrec/mvx/translate"
)

var f = translate.From

// CONFIG_DEFAULT is the configuration file read when none is given.
const CONFIG_DEFAULT = "mvx.toml"

var (
	ErrMemory  = errors.New(f("memory size out of range"))
	ErrUnknown = errors.New(f("unknown configuration key"))
)

// ErrConfig annotates a configuration error with its file.
type ErrConfig struct {
	Path string
	Err  error
}

func (err *ErrConfig) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *ErrConfig) Unwrap() error {
	return err.Err
}

// Config holds the simulator settings.
type Config struct {
	Memory      int    `toml:"memory"`      // Memory size in KiB.
	Snapshot    string `toml:"snapshot"`    // VMI file saved at breakpoints, empty disables them.
	Verbose     bool   `toml:"verbose"`     // Verbose logging.
	Disassemble bool   `toml:"disassemble"` // List the program before running.
	Seed        uint64 `toml:"seed"`        // RND seed, 0 for a random seed.
}

// Default returns the default configuration.
func Default() (cfg *Config) {
	cfg = &Config{
		Memory: cpu.MEMORY_KIB_DEFAULT,
	}
	return
}

// Load decodes a TOML file over the default configuration. When implicit
// is set a missing file is not an error.
func Load(path string, implicit bool) (cfg *Config, err error) {
	cfg = Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if implicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
			return
		}
		err = &ErrConfig{Path: path, Err: err}
		cfg = nil
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		var keys []string
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		err = &ErrConfig{Path: path, Err: errors.Join(ErrUnknown, errors.New(strings.Join(keys, ", ")))}
		cfg = nil
		return
	}

	err = cfg.Validate()
	if err != nil {
		err = &ErrConfig{Path: path, Err: err}
		cfg = nil
		return
	}

	return
}

// Validate checks that the settings are in range.
func (cfg *Config) Validate() (err error) {
	if cfg.Memory < cpu.MEMORY_KIB_MIN || cfg.Memory > cpu.MEMORY_KIB_MAX {
		err = ErrMemory
		return
	}
	return
}
