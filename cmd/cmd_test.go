// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagetrim/pagetrim/internal/config"
)

// executeCommandNoPreRun is for testing argument and flag validation without
// triggering the config loading in PersistentPreRunE.
func executeCommandNoPreRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Create a new root command for each test run to ensure isolation.
	testRootCmd := NewRootCommand()

	buf := new(bytes.Buffer)
	testRootCmd.PersistentPreRunE = nil // Disable config loading for simple validation tests.
	testRootCmd.SetOut(buf)
	testRootCmd.SetErr(buf)
	testRootCmd.SetArgs(args)
	err := testRootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// seedDefaults resets the global viper and seeds the application defaults,
// so RunE-level tests see a clean configuration regardless of test order.
func seedDefaults(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
}

func TestCropCmdRequiresInput(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "crop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s), received 0")
}

func TestRestoreCmdRequiresInput(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "restore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s), received 0")
}

func TestVersionFlag(t *testing.T) {
	output, err := executeCommandNoPreRun(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", output)
}

func TestHelpListsSubcommands(t *testing.T) {
	output, err := executeCommandNoPreRun(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "crop")
	assert.Contains(t, output, "restore")
}

func TestCropCmdMissingInputFile(t *testing.T) {
	seedDefaults(t)

	missing := filepath.Join(t.TempDir(), "no-such-input.pdf")
	_, err := executeCommandNoPreRun(t, "crop", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file")
}

func TestRestoreCmdMissingInputFile(t *testing.T) {
	seedDefaults(t)

	missing := filepath.Join(t.TempDir(), "no-such-input.pdf")
	_, err := executeCommandNoPreRun(t, "restore", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file")
}

func TestCropCmdNoClobberRefusesExistingOutput(t *testing.T) {
	seedDefaults(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4"), 0644))
	// The derived default output name already exists.
	output := filepath.Join(dir, "doc_cropped.pdf")
	require.NoError(t, os.WriteFile(output, []byte("%PDF-1.4"), 0644))

	_, err := executeCommandNoPreRun(t, "crop", "--no-clobber", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite existing output file")
}

func TestCropCmdMissingGhostscript(t *testing.T) {
	seedDefaults(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4"), 0644))

	_, err := executeCommandNoPreRun(t, "crop", "--ghostscript-path", filepath.Join(dir, "no-such-gs"), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghostscript executable not found")
}

func TestCropCmdRejectsUnknownEngine(t *testing.T) {
	seedDefaults(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4"), 0644))

	_, err := executeCommandNoPreRun(t, "crop", "--engine", "bogus", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine must be one of bbox, render")
}

func TestCropCmdRejectsBadMarginCount(t *testing.T) {
	seedDefaults(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4"), 0644))

	_, err := executeCommandNoPreRun(t, "crop", "--percent-retain", "10,20", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 or 4 values")
}
