package config

import (
	"os"
	"path/filepath"
	"strings"
)

// UserConfigPath returns ~/.config/treeview/config.yaml, or "" when the
// home directory is unknown.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "treeview", FileName)
}

// DetectProjectRoot finds the project root by walking up from the current
// directory looking for .treeview/.
func DetectProjectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindProjectRoot(dir)
}

// FindProjectRoot walks up from dir looking for a .treeview/ directory.
func FindProjectRoot(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	home, _ := os.UserHomeDir()

	for {
		settings := filepath.Join(dir, DirName)
		if info, err := os.Stat(settings); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// StateDirFor returns where tree state is kept: the configured state_dir, else
// .treeview under the project root, else .treeview under workDir.
func (c Config) StateDirFor(workDir string) string {
	if c.StateDir != "" {
		return c.StateDir
	}
	if root, ok := FindProjectRoot(workDir); ok {
		return filepath.Join(root, DirName)
	}
	return filepath.Join(workDir, DirName)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
