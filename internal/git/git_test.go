package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
}

func TestCheckOutsideRepo(t *testing.T) {
	status := Check(t.TempDir(), ".credvault")
	if status.IsRepo {
		t.Error("Temp directory should not be a repository")
	}
	if out := status.Format(); out != "" {
		t.Errorf("Format outside a repository should be empty, got %q", out)
	}
}

func TestCheckTrackedDatabase(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	if err := os.WriteFile(filepath.Join(dir, ".credvault"), []byte("db"), 0600); err != nil {
		t.Fatalf("Failed to write database: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seed.txt"), []byte("secret"), 0600); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}

	status := Check(dir, ".credvault", "seed.txt")
	if !status.IsRepo {
		t.Fatal("Directory should be a repository")
	}
	if status.DatabaseTracked || status.DatabaseIgnored {
		t.Errorf("Fresh database should be neither tracked nor ignored: %+v", status)
	}
	if len(status.UnignoredFiles) != 1 {
		t.Errorf("Expected one unignored secret, got %v", status.UnignoredFiles)
	}
	if !strings.Contains(status.Format(), "warning: .credvault not in .gitignore") {
		t.Errorf("Unexpected format:\n%s", status.Format())
	}

	runGit(t, dir, "add", ".credvault")
	status = Check(dir, filepath.Join(dir, ".credvault"))
	if !status.DatabaseTracked {
		t.Error("Database should be tracked after git add")
	}
	if !strings.Contains(status.Format(), "error:") {
		t.Errorf("Tracked database should be reported as an error:\n%s", status.Format())
	}
}

func TestCheckIgnoredDatabase(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".credvault\n*.txt\n"), 0600); err != nil {
		t.Fatalf("Failed to write .gitignore: %v", err)
	}

	status := Check(dir, ".credvault", "seed.txt")
	if !status.DatabaseIgnored {
		t.Error("Database should be ignored")
	}
	if len(status.UnignoredFiles) != 0 || len(status.TrackedSecrets) != 0 {
		t.Errorf("Ignored secret should not be reported: %+v", status)
	}
	if !strings.Contains(status.Format(), "ok: .credvault is ignored by git") {
		t.Errorf("Unexpected format:\n%s", status.Format())
	}
}
