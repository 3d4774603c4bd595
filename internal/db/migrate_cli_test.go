package db

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestRunMigrateCommand_UpVersionStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	RunMigrateCommand([]string{"up"}, path)
	RunMigrateCommand([]string{"version", "2"}, path)

	out := captureStdout(t, func() { RunMigrateCommand([]string{"status"}, path) })
	assert.Contains(t, out, "Current version: 2")
	assert.Contains(t, out, "Latest available: 3")
	assert.Contains(t, out, "Dirty: false")
}

func TestRunMigrateCommand_StatusUntracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	d, err := OpenDB(path)
	require.NoError(t, err)
	_, err = d.Exec(`CREATE TABLE elements (id INTEGER PRIMARY KEY, type TEXT, nom TEXT);
		CREATE TABLE vertices (id INTEGER PRIMARY KEY, element_id INTEGER, x REAL, y REAL, z REAL, vertex_index INTEGER);`)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	out := captureStdout(t, func() { RunMigrateCommand([]string{"status"}, path) })
	assert.Contains(t, out, "No schema_migrations table found")
	assert.Contains(t, out, "Detected version: 1")
}

func TestPrintMigrateHelp(t *testing.T) {
	out := captureStdout(t, PrintMigrateHelp)
	assert.Contains(t, out, "structure-align migrate -db <file>")
	for _, cmd := range []string{"up", "down", "status", "version <N>", "force <N>", "baseline <N>"} {
		assert.Contains(t, out, cmd)
	}
}
