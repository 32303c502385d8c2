// Package loader reads and writes tree data files and watches them for
// changes.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// Format is a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Unknown extensions are
// treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a tree from a JSON or YAML file. The document is either a
// list of root nodes or a single root node.
func LoadFile(path string) ([]model.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree data: %w", err)
	}
	nodes, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// Decode parses tree data in the given format.
func Decode(data []byte, format Format) ([]model.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}
	return model.FromValue(doc)
}

// Encode serializes nodes in the given format. Func values, which raw
// nodes may carry, must be removed by the caller.
func Encode(nodes []model.Node, format Format) ([]byte, error) {
	if nodes == nil {
		nodes = []model.Node{}
	}
	if format == FormatYAML {
		return yaml.Marshal(nodes)
	}
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// SaveFile writes nodes to path atomically, in the format its extension
// names.
func SaveFile(path string, nodes []model.Node) error {
	data, err := Encode(nodes, FormatOf(path))
	if err != nil {
		return fmt.Errorf("encoding tree data: %w", err)
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place, so readers never see a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
