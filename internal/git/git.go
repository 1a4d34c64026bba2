package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status describes how git sees the vault database and exported secrets
type Status struct {
	IsRepo          bool
	Database        string
	DatabaseTracked bool
	DatabaseIgnored bool
	TrackedSecrets  []string // Exported secret files tracked by git (bad)
	UnignoredFiles  []string // Exported secret files not in .gitignore (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	// git check-ignore returns exit code 0 if file is ignored
	return cmd.Run() == nil
}

// Check inspects the database and any exported secret files. Paths are
// relative to workDir. The database only opens on the device that wrote
// it, so it should never be committed.
func Check(workDir, database string, secrets ...string) *Status {
	status := &Status{Database: database}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true

	if rel, ok := relative(workDir, database); ok {
		status.DatabaseTracked = IsTracked(workDir, rel)
		status.DatabaseIgnored = IsIgnored(workDir, rel)
	}

	for _, file := range secrets {
		if IsTracked(workDir, file) {
			status.TrackedSecrets = append(status.TrackedSecrets, file)
		} else if !IsIgnored(workDir, file) {
			status.UnignoredFiles = append(status.UnignoredFiles, file)
		}
	}
	return status
}

// relative returns path relative to workDir when it lies inside it
func relative(workDir, path string) (string, bool) {
	if !filepath.IsAbs(path) {
		return path, filepath.IsLocal(filepath.Clean(path))
	}
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absDir, path)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return rel, true
}

// Format renders the status for display. It is empty outside a repository.
func (s *Status) Format() string {
	if !s.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case s.DatabaseTracked:
		fmt.Fprintf(&result, "   error: %s is tracked by git (run: git rm --cached %s)\n", s.Database, s.Database)
	case !s.DatabaseIgnored:
		fmt.Fprintf(&result, "   warning: %s not in .gitignore (add to .gitignore)\n", s.Database)
	default:
		fmt.Fprintf(&result, "   ok: %s is ignored by git\n", s.Database)
	}

	for _, file := range s.TrackedSecrets {
		fmt.Fprintf(&result, "   error: secret file %s tracked by git (run: git rm --cached %s)\n", file, file)
	}
	for _, file := range s.UnignoredFiles {
		fmt.Fprintf(&result, "   warning: secret file %s not in .gitignore\n", file)
	}

	return result.String()
}
