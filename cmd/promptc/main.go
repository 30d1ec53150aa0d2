// Command promptc rewrites a prompt written for one LLM provider into an
// equivalent prompt for another, reporting the score history of the run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/promptc-ai/promptc/compiler"
	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/models"
	"github.com/promptc-ai/promptc/providers"
	"github.com/promptc-ai/promptc/utils"
)

var (
	flagPromptFile     string
	flagSourceModel    string
	flagSourceProvider string
	flagTargetModel    string
	flagTargetProvider string
	flagMaxRetries     int
	flagThreshold      float64
	flagPatience       int
	flagNoBaseline     bool
	flagNoPilot        bool
	flagJSON           bool
	flagVerbose        bool
	flagDebugDir       string
)

func main() {
	root := &cobra.Command{
		Use:           "promptc",
		Short:         "Compile prompts between LLM providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newModelsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [prompt]",
		Short: "Compile a prompt for a new target model",
		Long: `Compile rewrites a prompt authored for one model into an equivalent
prompt for another. The prompt is read from the argument, from --file, or
from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompile,
	}

	cmd.Flags().StringVarP(&flagPromptFile, "file", "f", "", "read the prompt from a file")
	cmd.Flags().StringVar(&flagSourceModel, "source-model", "gpt-4o", "model the prompt was written for")
	cmd.Flags().StringVar(&flagSourceProvider, "source-provider", "openai", "provider of the source model")
	cmd.Flags().StringVar(&flagTargetModel, "target-model", "", "model to compile for (required)")
	cmd.Flags().StringVar(&flagTargetProvider, "target-provider", "", "provider of the target model (required)")
	cmd.Flags().IntVar(&flagMaxRetries, "max-retries", 0, "attempt budget (defaults to the configured value)")
	cmd.Flags().Float64Var(&flagThreshold, "threshold", -1, "acceptance score threshold in [0,1]")
	cmd.Flags().IntVar(&flagPatience, "patience", -1, "attempts without improvement before stopping")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "skip the baseline run against the source model")
	cmd.Flags().BoolVar(&flagNoPilot, "no-pilot", false, "skip test-flying candidates against the target model")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&flagDebugDir, "debug-dir", "", "write per-attempt JSON artifacts into this directory")
	_ = cmd.MarkFlagRequired("target-model")
	_ = cmd.MarkFlagRequired("target-provider")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	rawPrompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if flagNoBaseline {
		cfg.EnableBaseline = false
	}
	if flagNoPilot {
		cfg.EnablePilot = false
	}
	if flagVerbose {
		cfg.LogLevel = utils.LogLevelDebug
	}

	logger := utils.NewLogger(cfg.LogLevel)
	registry := providers.NewProviderRegistry()

	var opts []compiler.Option
	if flagDebugDir != "" {
		dm := utils.NewDebugManager(logger, utils.DebugOptions{
			Enabled:    true,
			SaveToFile: true,
			OutputDir:  flagDebugDir,
		})
		opts = append(opts, compiler.WithDebugManager(dm))
	}

	pipeline, err := compiler.New(cfg, registry, logger, opts...)
	if err != nil {
		return err
	}

	req := compiler.Request{
		RawPrompt:      rawPrompt,
		SourceModel:    flagSourceModel,
		SourceProvider: flagSourceProvider,
		TargetModel:    flagTargetModel,
		TargetProvider: flagTargetProvider,
	}
	if cmd.Flags().Changed("max-retries") {
		req.MaxRetries = &flagMaxRetries
	}
	if flagThreshold >= 0 {
		req.ScoreThreshold = &flagThreshold
	}
	if flagPatience >= 0 {
		req.EarlyStopPatience = &flagPatience
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, req)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderResult(cmd, result)
	return nil
}

func readPrompt(args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case flagPromptFile != "":
		data, err := os.ReadFile(flagPromptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt file: %w", err)
		}
		return string(data), nil
	default:
		data, err := readAllStdin()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(data) == "" {
			return "", fmt.Errorf("no prompt given: pass it as an argument, via --file, or on stdin")
		}
		return data, nil
	}
}

func readAllStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func renderResult(cmd *cobra.Command, result *compiler.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s (score %.2f)\n\n", result.RunID, result.Status, result.FinalScore)
	for _, attempt := range result.History {
		switch {
		case attempt.Failed:
			fmt.Fprintf(out, "  attempt %d: failed (%s)\n", attempt.Number, attempt.FailureReason)
		case attempt.Accepted:
			fmt.Fprintf(out, "  attempt %d: %.2f (accepted)\n", attempt.Number, *attempt.Score)
		default:
			fmt.Fprintf(out, "  attempt %d: %.2f\n", attempt.Number, *attempt.Score)
		}
	}
	fmt.Fprintf(out, "\n--- compiled prompt ---\n%s\n", result.Prompt)
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the known target models",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := utils.NewLogger(utils.LogLevelOff)
			catalog := models.NewRegistry(logger)
			for _, m := range catalog.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-30s ctx=%d style=%s\n",
					m.Provider, m.Name, m.ContextWindow, m.PromptStyle)
			}
			return nil
		},
	}
}
