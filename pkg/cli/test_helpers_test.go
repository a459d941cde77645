package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

// isolateCLI points HOME at a temp dir and clears the environment the root
// command reads, so tests see neither the developer's profile nor their
// database.
func isolateCLI(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"DATABASE_CONNECTION", "DATABASE_READ_CONNECTION", "DATABASE_READ_POOL_SIZE",
		"DATABASE_AUTO_MIGRATE", "DEADLOCK_RETRY_BACKOFF", "DEADLOCK_RETRY_MAX_ATTEMPTS",
		"LOG_LEVEL", "LOG_FORMAT", "ENV", "ACCT_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

// testDB returns a connection URL for a fresh SQLite file.
func testDB(t *testing.T) string {
	t.Helper()
	return "sqlite:///" + filepath.Join(t.TempDir(), "account.sqlite")
}

// runCLI executes the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if stderr.Len() > 0 {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}
