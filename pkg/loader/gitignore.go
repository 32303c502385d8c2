package loader

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

const gitignoreComment = "# treeview per-user UI state"

// EnsureStateIgnored makes sure the project's .gitignore keeps the tree
// state file at statePath out of the repository. Settings in
// .treeview/config.yaml stay tracked. statePath is absolute or relative to
// projectDir; a state file outside the project is left alone.
//
// The function is idempotent and reports whether .gitignore was changed.
// It creates .gitignore when missing and preserves existing content.
func EnsureStateIgnored(projectDir, statePath string) (bool, error) {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return false, err
		}
	}

	rel, ok, err := stateRule(projectDir, statePath)
	if err != nil || !ok {
		return false, err
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if isStateIgnored(string(content), rel) {
		return false, nil
	}

	if err := os.WriteFile(gitignorePath, appendRule(content, "/"+rel), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// stateRule returns statePath relative to projectDir in slash form. ok is
// false when the state file does not live inside the project.
func stateRule(projectDir, statePath string) (string, bool, error) {
	rel := statePath
	if filepath.IsAbs(statePath) {
		r, err := filepath.Rel(projectDir, statePath)
		if err != nil {
			return "", false, err
		}
		rel = r
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false, nil
	}
	return rel, true, nil
}

// isStateIgnored reports whether the .gitignore content ignores rel. Later
// rules win, so a negated rule can re-include the state file.
func isStateIgnored(content, rel string) bool {
	ignored := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, negated := strings.CutPrefix(line, "!")
		if matchesStatePattern(rule, rel) {
			ignored = !negated
		}
	}
	return ignored
}

// matchesStatePattern checks if a single gitignore rule covers rel, either
// directly or through one of its parent directories. Only leading and
// trailing "**" are understood.
func matchesStatePattern(rule, rel string) bool {
	dirOnly := false
	if r, ok := strings.CutSuffix(rule, "/**"); ok {
		rule, dirOnly = r, true
	}
	if r, ok := strings.CutSuffix(rule, "/"); ok {
		rule, dirOnly = r, true
	}
	rule, floating := strings.CutPrefix(rule, "**/")
	anchored := !floating && strings.Contains(rule, "/")
	rule = strings.TrimPrefix(rule, "/")
	if rule == "" {
		return false
	}

	parts := strings.Split(rel, "/")
	for start := range parts {
		if anchored && start > 0 {
			break
		}
		for end := start + 1; end <= len(parts); end++ {
			// A directory rule never matches the file itself.
			if dirOnly && end == len(parts) {
				continue
			}
			if ok, _ := path.Match(rule, strings.Join(parts[start:end], "/")); ok {
				return true
			}
		}
	}
	return false
}

// appendRule returns content with the rule appended under a comment. A
// newline is added first when content does not end in one.
func appendRule(content []byte, rule string) []byte {
	var b strings.Builder
	b.Write(content)
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(gitignoreComment + "\n" + rule + "\n")
	return []byte(b.String())
}
