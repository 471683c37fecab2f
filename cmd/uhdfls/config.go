package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// config holds the defaults a TOML file may set. Flags given on the
// command line win.
type config struct {
	Output     string `toml:"output"`
	Attributes bool   `toml:"attributes"`
	LogLevel   string `toml:"log_level"`
}

func defaultConfig() config {
	return config{Output: "text", Attributes: true, LogLevel: "warn"}
}

// flagNames maps config keys to the flags that override them.
var flagNames = map[string]string{
	"output":     "output",
	"attributes": "attrs",
	"log_level":  "log-level",
}

// loadConfig reads the config file into a.cfg, skipping every value whose
// flag was set. A missing default file is not an error.
func (a *app) loadConfig(flags *pflag.FlagSet) error {
	path := a.configFile
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".uhdfls.toml")
	}

	var file config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}

	set := func(key string, apply func()) {
		if !md.IsDefined(key) {
			return
		}
		if f := flags.Lookup(flagNames[key]); f != nil && f.Changed {
			return
		}
		apply()
	}
	set("output", func() { a.cfg.Output = file.Output })
	set("attributes", func() { a.cfg.Attributes = file.Attributes })
	set("log_level", func() { a.cfg.LogLevel = file.LogLevel })
	return nil
}
