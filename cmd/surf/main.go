package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/surf/pkg/agent"
	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/executor"
	"github.com/entrhq/surf/pkg/logging"
)

const defaultModel = "gpt-4o"

var (
	flagModel       string
	flagBaseURL     string
	flagAPIKey      string
	flagConfig      string
	flagHeadless    bool
	flagMaxSteps    int
	flagScreenshots bool
	flagAllow       []string
	flagTimeout     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "surf <url> <task>",
		Short: "Drive a real browser through a task with an LLM",
		Long: `surf opens the given URL in a browser, reads the page into a numbered
element map, and lets an LLM work through the task step by step: clicking,
typing, selecting, and navigating until it reports the task done.

Example:
  surf "https://news.ycombinator.com" "open the top story and summarize it"`,
		Args: cobra.ExactArgs(2),
		RunE: run,
	}

	rootCmd.Flags().StringVar(&flagModel, "model", "", "Model to use (default "+defaultModel+")")
	rootCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible API base URL")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to OPENAI_API_KEY)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default ~/.surf/config.yaml)")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", true, "Run the browser without a visible window")
	rootCmd.Flags().IntVar(&flagMaxSteps, "max-steps", agent.DefaultMaxSteps, "Maximum model round trips")
	rootCmd.Flags().BoolVar(&flagScreenshots, "screenshots", false, "Send page screenshots to the model")
	rootCmd.Flags().StringSliceVar(&flagAllow, "allow", nil, "Host glob the agent may navigate to (repeatable; empty allows all)")
	rootCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Per-interaction timeout in seconds (0 uses config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	url, task := args[0], args[1]

	if err := config.Initialize(flagConfig); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logErr := logging.New("surf")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", logErr)
	}
	defer logger.Close()

	provider, err := config.BuildProvider(flagModel, flagBaseURL, flagAPIKey, defaultModel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browserCfg := config.GetBrowser()
	headless := flagHeadless
	if !cmd.Flags().Changed("headless") && browserCfg != nil {
		headless = browserCfg.GetHeadless()
	}
	timeout := time.Duration(flagTimeout) * time.Second
	if timeout == 0 && browserCfg != nil {
		timeout = time.Duration(browserCfg.GetTimeoutSeconds()) * time.Second
	}

	manager := browser.NewSessionManager()
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("initializing browser driver: %w", err)
	}
	defer manager.Shutdown()

	opts := browser.SessionOptions{
		Headless: headless,
		Timeout:  timeout,
	}
	if browserCfg != nil {
		w, h := browserCfg.GetViewport()
		opts.Viewport = &browser.Viewport{Width: w, Height: h}
		opts.PollBudget = browserCfg.GetPollBudget()
	}

	session, err := manager.StartSession("", opts)
	if err != nil {
		return fmt.Errorf("starting browser session: %w", err)
	}

	fmt.Printf("→ Opening %s...\n", url)
	if err := session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}

	scope, err := buildScope()
	if err != nil {
		return err
	}

	controllerOpts := []executor.Option{
		executor.WithScope(scope),
		executor.WithLogger(logger),
	}
	if timeout > 0 {
		controllerOpts = append(controllerOpts, executor.WithTimeout(timeout))
	}
	controller := executor.NewController(session.Registry, session.Tracker, controllerOpts...)

	a := agent.New(provider, session, controller,
		agent.WithMaxSteps(flagMaxSteps),
		agent.WithScreenshots(flagScreenshots),
		agent.WithLogger(logger),
	)

	fmt.Printf("→ Working on: %s\n", task)
	summary, err := a.Run(ctx, task)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s\n", summary)
	if logger.Path() != "" {
		fmt.Printf("  (log: %s)\n", logger.Path())
	}
	return nil
}

// buildScope merges --allow patterns with the config file's allow-list.
func buildScope() (*executor.Scope, error) {
	patterns := append([]string(nil), flagAllow...)
	if scopeCfg := config.GetScope(); scopeCfg != nil {
		patterns = append(patterns, scopeCfg.GetAllowedURLs()...)
	}
	return executor.NewScope(patterns)
}
