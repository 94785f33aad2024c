package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canopy/internal/app"
)

func TestRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n"), 0o600))
	output := filepath.Join(t.TempDir(), "report.json")
	verboseOutput := filepath.Join(t.TempDir(), "report.csv")

	tests := []struct {
		name         string
		args         []string
		expectedExit int
	}{
		{
			name:         "version",
			args:         []string{"version"},
			expectedExit: 0,
		},
		{
			name:         "scan writes report",
			args:         []string{"scan", root, "-o", output, "--log-format", "json", "--no-cache"},
			expectedExit: 0,
		},
		{
			name:         "verbose scan",
			args:         []string{"scan", root, "-v", "-f", "csv", "-o", verboseOutput, "--log-format", "json", "--no-cache"},
			expectedExit: 0,
		},
		{
			name:         "help",
			args:         []string{"--help"},
			expectedExit: 0,
		},
		{
			name:         "unknown flag",
			args:         []string{"scan", "--bogus"},
			expectedExit: 1,
		},
		{
			name:         "missing root",
			args:         []string{"scan", filepath.Join(root, "missing"), "-o", "-", "--log-format", "json"},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			exitCode := run(tt.args, stderr, executeGraph)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a.txt"`)
	assert.Contains(t, string(data), `"main.go"`)
	assert.FileExists(t, verboseOutput)
}

func TestRun_ProviderError(t *testing.T) {
	stderr := new(bytes.Buffer)
	exitCode := run([]string{"version"}, stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("graph failed")
	})
	assert.Equal(t, 1, exitCode)
	assert.Equal(t, "Error: graph failed\n", stderr.String())
}
