package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"region-chat/src/chat"
	"region-chat/src/config"
	"region-chat/src/format"
	"region-chat/src/llm"
	"region-chat/src/runtimeinit"
)

const (
	maxPromptSizeKB = 256
	maxPromptSize   = maxPromptSizeKB * 1024
)

type cliOptions struct {
	filePath   string
	jsonOutput bool
	markup     bool
	verbose    bool
	apiKeyPath string
	envFile    string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout)
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"regionchat-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "regionchat-cli",
		Short:         "Command line access to the region chat completion service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	ask := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one prompt through the chat pipeline and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(*opts, args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), *opts, prompt, cmd.OutOrStdout())
		},
	}
	ask.Flags().StringVar(&opts.filePath, "file", "", "Read the prompt from a file (use '-' for stdin)")
	ask.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	ask.Flags().BoolVar(&opts.markup, "markup", false, "Print the reply as formatted markup")

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.PersistentFlags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", "", "Path to a .env file (overrides discovery)")

	cmd.AddCommand(ask)
	return cmd
}

func readPrompt(opts cliOptions, args []string, stdin io.Reader) (string, error) {
	var prompt string
	switch {
	case len(args) > 0 && opts.filePath != "":
		return "", fmt.Errorf("pass the prompt as arguments or --file, not both")
	case len(args) > 0:
		prompt = strings.Join(args, " ")
	case opts.filePath == "-":
		data, err := io.ReadAll(io.LimitReader(stdin, maxPromptSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		prompt = string(data)
	case opts.filePath != "":
		data, err := os.ReadFile(opts.filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
		prompt = string(data)
	default:
		return "", fmt.Errorf("a prompt is required")
	}

	if len(prompt) > maxPromptSize {
		return "", fmt.Errorf("prompt exceeds maximum size of %d KB", maxPromptSizeKB)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	return prompt, nil
}

func runAsk(ctx context.Context, opts cliOptions, prompt string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EnvFileOverride:    opts.envFile,
		},
		Verbose: opts.verbose,
	})
	if err != nil {
		return err
	}
	log := rt.Logger
	defer func() { _ = log.Sync() }()

	if rt.Config.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY not found. Checked key file %s and the GROQ_API_KEY env var", rt.Config.APIKeyPath)
	}

	// Same history shape as a fresh chat window: greeting, then the question.
	messages := []llm.Message{
		{Role: llm.RoleAssistant, Content: chat.Greeting},
		{Role: llm.RoleUser, Content: prompt},
	}

	start := time.Now()
	reply, err := rt.Client.Complete(ctx, messages)
	elapsed := time.Since(start)
	if err != nil {
		log.Debug("completion failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return fmt.Errorf("completion failed: %w", err)
	}
	log.Debug("completion done", zap.Duration("elapsed", elapsed), zap.Int("chars", len(reply)))

	return outputResult(out, reply, rt.Client.Model(), elapsed, opts)
}

type AskResult struct {
	Reply     string  `json:"reply"`
	Markup    string  `json:"markup"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(out io.Writer, reply, model string, elapsed time.Duration, opts cliOptions) error {
	markup := format.Render(reply).Markup()

	switch {
	case opts.jsonOutput:
		result := AskResult{
			Reply:     reply,
			Markup:    markup,
			Model:     model,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			CharCount: len(reply),
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	case opts.markup:
		fmt.Fprintln(out, markup)
	default:
		fmt.Fprintln(out, reply)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "markup", "verbose", "api-key-path", "env"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
