// Package config loads fiberctl's on-disk TOML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// File is the shape of fiberctl's config file, conventionally named
// fiberctl.toml.
type File struct {
	Threads   int    `toml:"threads"`
	Namespace string `toml:"namespace"`
	Color     string `toml:"color"` // "auto", "on", or "off"
}

// Default returns a File with fiberctl's built-in defaults.
func Default() File {
	return File{
		Threads:   4,
		Namespace: "fibersched",
		Color:     "auto",
	}
}

// Load reads and decodes a TOML config file at path, overlaying it onto
// Default(). A missing file is not an error; Load returns the defaults.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return f, nil
	}

	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return f, nil
}
