package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DebugOptions contains configuration for debug output.
type DebugOptions struct {
	Enabled      bool
	OutputDir    string
	SaveToFile   bool
	LogPrompts   bool
	LogResponses bool
}

// DebugManager handles debug output for a compilation run. When file output
// is enabled, each attempt gets its own JSON artifact so failed runs can be
// inspected after the fact.
type DebugManager struct {
	options   DebugOptions
	logger    Logger
	outputDir string
}

// NewDebugManager creates a new debug manager with the given options.
func NewDebugManager(logger Logger, options DebugOptions) *DebugManager {
	outputDir := options.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(".", "debug_output")
	}

	if options.SaveToFile && options.Enabled {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			log.Printf("Warning: failed to create debug output directory: %v", err)
		}
	}

	return &DebugManager{
		options:   options,
		logger:    logger,
		outputDir: outputDir,
	}
}

// LogPrompt logs an outgoing instruction if prompt logging is enabled.
func (dm *DebugManager) LogPrompt(prompt string) {
	if !dm.options.Enabled || !dm.options.LogPrompts {
		return
	}
	dm.logger.Debug("Prompt sent", "prompt", prompt)
	if dm.options.SaveToFile {
		dm.saveToFile("prompts.log", prompt)
	}
}

// LogResponse logs a model response if response logging is enabled.
func (dm *DebugManager) LogResponse(response string) {
	if !dm.options.Enabled || !dm.options.LogResponses {
		return
	}
	dm.logger.Debug("Response received", "response", response)
	if dm.options.SaveToFile {
		dm.saveToFile("responses.log", response)
	}
}

// SaveAttempt saves one compilation attempt to a timestamped JSON file.
func (dm *DebugManager) SaveAttempt(attempt int, data any) {
	if !dm.options.Enabled || !dm.options.SaveToFile {
		return
	}

	filename := fmt.Sprintf("attempt_%d_%s.json", attempt, time.Now().Format("20060102_150405"))
	path := filepath.Join(dm.outputDir, filename)

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		dm.logger.Warn("Failed to marshal attempt data", "error", err)
		return
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		dm.logger.Warn("Failed to save attempt data", "path", path, "error", err)
	}
}

func (dm *DebugManager) saveToFile(name, content string) {
	path := filepath.Join(dm.outputDir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		dm.logger.Warn("Failed to open debug file", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "--- %s ---\n%s\n", time.Now().Format(time.RFC3339), content); err != nil {
		dm.logger.Warn("Failed to write debug file", "path", path, "error", err)
	}
}
