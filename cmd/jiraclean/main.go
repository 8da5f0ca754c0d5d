package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuannvm/jiraclean/internal/analyzer"
	"github.com/tuannvm/jiraclean/internal/assessment"
	"github.com/tuannvm/jiraclean/internal/config"
	"github.com/tuannvm/jiraclean/internal/executor"
	"github.com/tuannvm/jiraclean/internal/filter"
	"github.com/tuannvm/jiraclean/internal/jira"
	"github.com/tuannvm/jiraclean/internal/llm"
	"github.com/tuannvm/jiraclean/internal/logging"
	"github.com/tuannvm/jiraclean/internal/pipeline"
	"github.com/tuannvm/jiraclean/internal/prompts"
	"github.com/tuannvm/jiraclean/internal/ui"
)

var (
	flagProject      string
	flagDryRun       bool
	flagMaxTickets   int
	flagAnalyzerKind string
	flagProvider     string
	flagModel        string
	flagWorkers      int
	flagEnvFile      string
	flagDebug        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jiraclean",
		Short: "Sweep a Jira project for tickets that need governance attention",
		Long: "jiraclean pre-filters tickets by age and inactivity, assesses the survivors\n" +
			"with an LLM, and posts accountability comments. Dry-run mode (the default)\n" +
			"prints exactly what would be posted without touching Jira.",
		SilenceUsage: true,
		RunE:         runSweep,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&flagProject, "project", "p", "", "Jira project key to process (required)")
	flags.BoolVar(&flagDryRun, "dry-run", true, "simulate actions instead of performing them")
	flags.IntVarP(&flagMaxTickets, "max-tickets", "n", 50, "maximum tickets to process (0 = no limit)")
	flags.StringVarP(&flagAnalyzerKind, "analyzer", "a", "quiescent", "analysis kind: quiescent or quality")
	flags.StringVar(&flagProvider, "provider", "", "LLM provider override (openai, azure, ollama, anthropic)")
	flags.StringVarP(&flagModel, "model", "m", "", "LLM model override")
	flags.IntVar(&flagWorkers, "workers", 0, "concurrent ticket workers (0 = from config)")
	flags.StringVarP(&flagEnvFile, "env-file", "e", "", "path to .env file with configuration")
	flags.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("project")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	logging.Configure(flagDebug)
	defer logging.Sync()

	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	if flagProvider != "" {
		cfg.LLMProvider = flagProvider
	}
	if flagModel != "" {
		cfg.LLMModel = flagModel
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}

	kind := assessment.Kind(flagAnalyzerKind)

	jiraClient, err := jira.NewClient(cfg, flagProject)
	if err != nil {
		return err
	}
	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return err
	}
	registry, err := prompts.NewRegistry(cfg.TemplateDir)
	if err != nil {
		return err
	}
	an, err := analyzer.ForKind(kind, llmClient, registry, analyzer.Options{
		MaxRetries:          cfg.LLMMaxRetries,
		ClosureWarningAfter: cfg.ClosureWarningAfter,
	})
	if err != nil {
		return err
	}

	mode := executor.DryRun
	if !flagDryRun {
		mode = executor.Live
	}
	exec := executor.New(jiraClient, mode)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Header(flagProject, mode.String(), flagAnalyzerKind, flagMaxTickets))

	proc := pipeline.New(jiraClient, an, exec, pipeline.Config{
		Criteria: filter.Criteria{
			MinAgeDays:      cfg.MinAgeDays,
			MinInactiveDays: cfg.MinInactiveDays,
			Excluded:        cfg.ExcludedStatuses,
		},
		MaxTickets:       flagMaxTickets,
		PageSize:         cfg.PageSize,
		Workers:          cfg.Workers,
		BreakerThreshold: cfg.BreakerThreshold,
		OnResult: func(res pipeline.TicketResult) {
			if res.Outcome != nil && res.Outcome.Simulated {
				fmt.Fprintln(out, ui.Preview(res.Ticket.Key, res.Outcome.Preview))
			}
		},
	})

	// SIGINT/SIGTERM cancels the run context: fetching stops and in-flight
	// collaborator calls are interrupted. Recorded statistics stay valid.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	stats, runErr := proc.Run(ctx)

	fmt.Fprintln(out, ui.Summary(stats))
	logging.Infof("Run finished in %s", time.Since(started).Round(time.Millisecond))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Fatal(runErr))
		return runErr
	}
	return nil
}
