// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the YAML settings file of a scene player.
package config

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gochoreo/cvar"
)

// Config is the on-disk settings file.
type Config struct {
	// Cvars are applied onto console variables by name.
	Cvars map[string]string `yaml:"cvars,omitempty"`
	// StringPool is the path of the string pool file used for compiled scenes.
	StringPool string `yaml:"stringpool,omitempty"`
	// SceneImage is the path of the scene image to play from.
	SceneImage string `yaml:"sceneimage,omitempty"`
	// SoundRoot is the directory wave files are resolved against.
	SoundRoot string `yaml:"soundroot,omitempty"`
}

// Parse decodes a settings file. Unknown keys are errors, an empty file is
// an empty Config.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parsing config")
	}
	return &c, nil
}

// Load reads the named settings file.
func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return c, nil
}

// Save writes c to the named file.
func (c *Config) Save(name string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.WriteFile(name, data, 0660); err != nil {
		return errors.Wrap(err, "writing config")
	}
	return nil
}

// Apply sets every listed console variable, in name order. Names that are
// not registered become user defined variables.
func (c *Config) Apply() {
	names := make([]string, 0, len(c.Cvars))
	for n := range c.Cvars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		cvar.SetUser(n, c.Cvars[n])
	}
}

// Capture returns a Config holding the archived console variables.
func Capture() *Config {
	c := &Config{Cvars: make(map[string]string)}
	for _, kv := range cvar.Archived() {
		c.Cvars[kv[0]] = kv[1]
	}
	return c
}
