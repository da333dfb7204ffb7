package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"booking-runner/internal/di"
	"booking-runner/internal/domain/booking"
	"booking-runner/internal/domain/entity"
	"booking-runner/internal/infrastructure/env"
	"booking-runner/internal/infrastructure/taskfile"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "runner",
		Short:         "Headless browser automation runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("runner", version)
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		workers  int
		poolSize int
		headless bool
		dryRun   bool
		results  string
	)

	cmd := &cobra.Command{
		Use:   "run <tasks.yaml>",
		Short: "Execute the tasks in a task file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], workers, poolSize, headless, dryRun, results)
		},
	}

	envService := env.NewEnvService()
	cmd.Flags().IntVar(&workers, "workers", envService.GetInt("WORKERS", 2), "number of concurrent executors")
	cmd.Flags().IntVar(&poolSize, "pool-size", envService.GetInt("POOL_SIZE", 2), "browser session pool ceiling")
	cmd.Flags().BoolVar(&headless, "headless", envService.GetBool("HEADLESS", true), "run the browser headless")
	cmd.Flags().BoolVar(&dryRun, "dry-run", envService.GetBool("DRY_RUN", true), "fill booking forms without submitting")
	cmd.Flags().StringVar(&results, "results", envService.Get("RESULTS_FILE", "results.jsonl"), "results file (JSON lines)")

	return cmd
}

func run(cmd *cobra.Command, taskPath string, workers, poolSize int, headless, dryRun bool, results string) error {
	envService := env.NewEnvService()

	flow := booking.DefaultFlowConfig()
	flow.BaseURL = envService.Get("FIDY_BASE_URL", flow.BaseURL)
	flow.DefaultReferer = envService.Get("DEFAULT_REFERER", flow.DefaultReferer)
	flow.DryRun = dryRun

	tasks, err := taskfile.Load(taskPath, taskfile.Options{
		Flow:        flow,
		PhoneRegion: envService.Get("PHONE_DEFAULT_REGION", "IT"),
		Now:         time.Now(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, di.Config{
		RunName:        strings.TrimSuffix(filepath.Base(taskPath), filepath.Ext(taskPath)),
		LogLevel:       envService.Get("LOG_LEVEL", "info"),
		Headless:       headless,
		PoolSize:       poolSize,
		Workers:        workers,
		AcquireTimeout: envService.GetDuration("ACQUIRE_TIMEOUT", 30*time.Second),
		ActionTimeout:  envService.GetDuration("ACTION_TIMEOUT", 20*time.Second),
		ResultsFile:    results,
		ArtifactDir:    envService.Get("ARTIFACT_DIR", "artifacts"),
	})
	if err != nil {
		if errors.Is(err, entity.ErrLaunchFailed) {
			return fmt.Errorf("browser runtime unavailable: %w", err)
		}
		return err
	}
	defer container.Close()

	container.Logger.Info("run started",
		"tasks", len(tasks),
		"workers", workers,
		"pool_size", poolSize,
		"dry_run", dryRun,
	)

	for _, task := range tasks {
		container.Queue.Enqueue(task)
	}
	container.Queue.Close()

	summary, err := container.Runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	container.Logger.Info("run finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	fmt.Printf("\n%d tasks: %d succeeded, %d failed\n", summary.Total, summary.Succeeded, summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", summary.Failed, summary.Total)
	}
	return nil
}
