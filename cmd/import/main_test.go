package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"payroll", "-file", "x.csv"}},
		{"missing file flag", []string{"identifiers"}},
		{"bad flag", []string{"schedule", "-nope"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, run(tc.args), errUsage)
		})
	}
}

func TestRun_MissingFileReturnsError(t *testing.T) {
	// GIVEN: A valid command and store but a file that does not exist
	// WHEN: Running the import
	// THEN: run returns the error instead of exiting, after the store is opened

	dir := t.TempDir()
	err := run([]string{
		"identifiers",
		"-db", filepath.Join(dir, "attendance.db"),
		"-file", filepath.Join(dir, "missing.csv"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "open file")
}
