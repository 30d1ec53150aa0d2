package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAttemptWritesJSON(t *testing.T) {
	dir := t.TempDir()
	dm := NewDebugManager(NewLogger(LogLevelOff), DebugOptions{
		Enabled:    true,
		SaveToFile: true,
		OutputDir:  dir,
	})

	dm.SaveAttempt(1, map[string]any{"score": 0.8})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "attempt_1_")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score": 0.8`)
}

func TestSaveAttemptDisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	dm := NewDebugManager(NewLogger(LogLevelOff), DebugOptions{
		Enabled:    false,
		SaveToFile: true,
		OutputDir:  dir,
	})

	dm.SaveAttempt(1, map[string]any{"score": 0.8})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogPromptAppendsToFile(t *testing.T) {
	dir := t.TempDir()
	dm := NewDebugManager(NewLogger(LogLevelOff), DebugOptions{
		Enabled:    true,
		SaveToFile: true,
		LogPrompts: true,
		OutputDir:  dir,
	})

	dm.LogPrompt("first prompt")
	dm.LogPrompt("second prompt")

	data, err := os.ReadFile(filepath.Join(dir, "prompts.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first prompt")
	assert.Contains(t, string(data), "second prompt")
}
