// Package config loads the driver host's settings from a TOML file, the
// concrete representation for the developer flags and pass toggles the
// core itself stays oblivious to (see util.Options for the command-line
// surface of the same knobs).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file name a driver host looks for in the current
// directory.
const FileName = "midir.toml"

// Passes holds the enable/disable state of every optional pass the driver
// host may run around the core's own simplifier.
type Passes struct {
	Mem2Reg bool `toml:"mem2reg"`
	Optim   bool `toml:"optim"`
}

// Debug holds the -v* verbose-logging switches.
type Debug struct {
	Dead      bool `toml:"dead"`
	Entry     bool `toml:"entry"`
	Postorder bool `toml:"postorder"`
}

// DriverFlags is the TOML-file counterpart of util.Options: everything a
// driver host needs to decide which passes to run and what to dump,
// without the core ever seeing this type.
type DriverFlags struct {
	Passes Passes   `toml:"passes"`
	Debug  Debug    `toml:"debug"`
	DumpIR []string `toml:"dump_ir"`
}

// Default returns the flag set a driver host uses when no config file is
// present: both optional passes enabled, no debug logging, nothing dumped.
func Default() DriverFlags {
	return DriverFlags{
		Passes: Passes{Mem2Reg: true, Optim: true},
	}
}

// Load reads and parses a DriverFlags from path.
func Load(path string) (DriverFlags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DriverFlags{}, fmt.Errorf("config: %w", err)
	}
	flags := Default()
	if err := toml.Unmarshal(data, &flags); err != nil {
		return DriverFlags{}, fmt.Errorf("config: %w", err)
	}
	return flags, nil
}

// FindConfigFile looks for FileName in dir, returning "" if absent. Unlike
// a project-config loader this never walks upward: driver-host settings
// are invoked per compilation directory, not inherited from a project
// root.
func FindConfigFile(dir string) string {
	path := dir + string(os.PathSeparator) + FileName
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
