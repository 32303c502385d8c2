// Package config loads treeview settings from YAML files.
//
// Settings are read from the user config (~/.config/treeview/config.yaml)
// and then from the project config (.treeview/config.yaml in the nearest
// ancestor directory that has one). Values in the project file win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// DirName is the per-project settings directory.
const DirName = ".treeview"

// FileName is the config file inside a settings directory.
const FileName = "config.yaml"

// Config is the merged configuration.
type Config struct {
	// SelectionMode is one of none, single, multiple, selectionFollowsFocus.
	SelectionMode string `yaml:"selection_mode,omitempty"`
	// Keys rebinds keyboard commands, e.g. focusNextItem: [down, j].
	Keys map[string][]string `yaml:"keys,omitempty"`
	// Defaults are applied to every node before per-node settings.
	Defaults *meta.Overrides `yaml:"defaults,omitempty"`

	// DataFile is a JSON or YAML tree. Database is a SQLite node store.
	// At most one may be set.
	DataFile string `yaml:"data_file,omitempty"`
	Database string `yaml:"database,omitempty"`

	// StateDir holds tree-state.json. Defaults to the project's .treeview.
	StateDir string `yaml:"state_dir,omitempty"`

	// Filter is the initial filter text.
	Filter string `yaml:"filter,omitempty"`
	// LiveReload rebuilds the tree when the data file changes.
	LiveReload *bool `yaml:"live_reload,omitempty"`

	// Sources lists the files the config was read from, in load order.
	Sources []string `yaml:"-"`
}

// Load reads the user config and the project config found from workDir.
// Missing files are not an error.
func Load(workDir string) (Config, error) {
	var paths []string
	if p := UserConfigPath(); p != "" {
		paths = append(paths, p)
	}
	if root, ok := FindProjectRoot(workDir); ok {
		paths = append(paths, filepath.Join(root, DirName, FileName))
	}
	return LoadFiles(paths...)
}

// LoadFiles reads each existing file in order onto one Config. Relative
// paths inside a file are resolved against that file's project directory.
func LoadFiles(paths ...string) (Config, error) {
	var cfg Config
	for _, path := range paths {
		layer, err := readFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, err
		}
		layer.resolvePaths(baseDir(path))
		cfg.merge(layer)
		cfg.Sources = append(cfg.Sources, path)
	}
	return cfg, nil
}

func readFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// baseDir is the directory relative paths in a config file refer to: the
// project root for .treeview/config.yaml, else the file's own directory.
func baseDir(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == DirName {
		return filepath.Dir(dir)
	}
	return dir
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.DataFile, &c.Database, &c.StateDir} {
		if *p != "" {
			*p = expandHome(*p)
			if !filepath.IsAbs(*p) {
				*p = filepath.Join(base, *p)
			}
		}
	}
}

// merge copies the fields layer sets onto c.
func (c *Config) merge(layer Config) {
	if layer.SelectionMode != "" {
		c.SelectionMode = layer.SelectionMode
	}
	if len(layer.Keys) > 0 {
		if c.Keys == nil {
			c.Keys = make(map[string][]string)
		}
		for cmd, keys := range layer.Keys {
			c.Keys[cmd] = keys
		}
	}
	if layer.Defaults != nil {
		c.Defaults = meta.Merge(c.Defaults, layer.Defaults)
	}
	if layer.DataFile != "" {
		c.DataFile = layer.DataFile
		c.Database = ""
	}
	if layer.Database != "" {
		c.Database = layer.Database
		c.DataFile = ""
	}
	if layer.StateDir != "" {
		c.StateDir = layer.StateDir
	}
	if layer.Filter != "" {
		c.Filter = layer.Filter
	}
	if layer.LiveReload != nil {
		v := *layer.LiveReload
		c.LiveReload = &v
	}
}

// Validate checks values that the tree would otherwise silently replace.
func (c Config) Validate() error {
	if _, ok := tree.ParseSelectionMode(c.SelectionMode); !ok {
		return fmt.Errorf("selection_mode: unknown mode %q", c.SelectionMode)
	}
	if _, err := tree.DefaultKeyMap().WithOverrides(c.Keys); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if c.DataFile != "" && c.Database != "" {
		return errors.New("data_file and database are mutually exclusive")
	}
	if d := c.Defaults; d != nil {
		if d.DataTransferEffectAllowed != nil && !d.DataTransferEffectAllowed.IsValid() {
			return fmt.Errorf("defaults.data_transfer_effect_allowed: unknown effect %q", *d.DataTransferEffectAllowed)
		}
		if d.Input != nil && !d.Input.Type.IsValid() {
			return fmt.Errorf("defaults.input.type: unknown input type %q", d.Input.Type)
		}
	}
	return nil
}

// Mode returns the parsed selection mode.
func (c Config) Mode() tree.SelectionMode {
	mode, _ := tree.ParseSelectionMode(c.SelectionMode)
	return mode
}

// KeyMap returns the default key map with the configured overrides.
func (c Config) KeyMap() (tree.KeyMap, error) {
	return tree.DefaultKeyMap().WithOverrides(c.Keys)
}

// LiveReloadEnabled reports whether the data file should be watched.
// It defaults to true.
func (c Config) LiveReloadEnabled() bool {
	return c.LiveReload == nil || *c.LiveReload
}
