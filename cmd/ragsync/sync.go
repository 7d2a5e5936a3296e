package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mschirtzinger/ragsync/internal/config"
	"github.com/mschirtzinger/ragsync/internal/dashboard"
	"github.com/mschirtzinger/ragsync/internal/history"
	"github.com/mschirtzinger/ragsync/internal/logging"
	"github.com/mschirtzinger/ragsync/internal/orchestrator"
	"github.com/mschirtzinger/ragsync/internal/remote"
	"github.com/mschirtzinger/ragsync/internal/report"
	"github.com/mschirtzinger/ragsync/internal/ui"
	"github.com/mschirtzinger/ragsync/internal/upload"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Upload new files from a directory and trigger parsing",
	Long: `Upload every supported file under --dir to the dataset named --collection.

The dataset is created when it does not exist. Files are uploaded in batches
of --batch-size; a failed batch is recorded and the next batch proceeds. With
--skip-existing, files whose name already exists in the dataset are skipped.
After uploading, parsing is triggered for every document in the dataset
unless --no-parse is given.

Example usage:
  ragsync sync --base-url http://localhost:9380 --collection docs --dir ./data
  ragsync sync -c docs -d ./data --skip-existing --report run.json
  ragsync sync -c docs -d ./data --dashboard-port 8765

Exit status is 0 when the run completes (even if some files failed) or when
no supported files were found, and 1 on interrupt or fatal error.`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.String("api-key", "", "RAGFlow API key (env RAGSYNC_API_KEY)")
	f.String("base-url", "", "RAGFlow base URL, e.g. http://localhost:9380")
	f.StringP("collection", "c", "", "Target dataset name")
	f.StringP("dir", "d", "", "Source directory")
	f.Int("batch-size", upload.DefaultBatchSize, "Files per upload request")
	f.Bool("no-parse", false, "Do not trigger parsing after upload")
	f.Bool("skip-existing", false, "Skip files whose name already exists in the dataset")
	f.String("log-file", "", "Log file (default ragsync_<timestamp>.log)")
	f.Duration("timeout", 0, "HTTP timeout per request (0 means none)")
	f.String("report", "", "Write a run report (.json, .yaml or .yml)")
	f.Int("dashboard-port", 0, "Serve live progress on this port (0 disables)")
	f.String("history-db", config.DefaultHistoryDB(), "Run ledger database")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		if cfg.APIKey, err = promptAPIKey(); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ui.Init(os.Stdout)

	logger, logPath, closer, err := logging.New(logOptions(cfg))
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("Starting sync",
		"base_url", cfg.BaseURL,
		"api_key", config.MaskKey(cfg.APIKey),
		"collection", cfg.Collection,
		"dir", cfg.Dir,
		"batch_size", cfg.BatchSize,
		"skip_existing", cfg.SkipExisting,
		"parse", !cfg.NoParse,
		"log_file", logPath)

	client, err := remote.NewHTTPClient(remote.HTTPConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return err
	}

	orch := orchestrator.New(client, logger)

	if cfg.DashboardPort > 0 {
		server := dashboard.NewServer(&dashboard.Config{Port: cfg.DashboardPort, Logger: logger})
		if err := server.Start(); err != nil {
			logger.Warn("Dashboard unavailable", "error", err)
		} else {
			defer func() { _ = server.Stop() }()
			orch.SetObserver(server)
			fmt.Printf("Live progress: %s\n", ui.RenderAccent("http://"+server.Addr()))
		}
	}

	summary, runErr := orch.Run(ctx, orchestrator.Options{
		Collection:   cfg.Collection,
		Dir:          cfg.Dir,
		BatchSize:    cfg.BatchSize,
		SkipExisting: cfg.SkipExisting,
		NoParse:      cfg.NoParse,
	})

	// The run context may already be cancelled; bookkeeping still completes.
	recordRun(context.WithoutCancel(ctx), cfg.HistoryDB, summary, logger)

	if cfg.Report != "" {
		if err := report.Write(cfg.Report, summary); err != nil {
			logger.Error("Failed to write report", "path", cfg.Report, "error", err)
		} else {
			logger.Info("Report written", "path", cfg.Report)
		}
	}

	printSummary(os.Stdout, summary, logPath)
	return runErr
}

// logOptions applies cfg's log settings over the default rotation policy.
func logOptions(cfg *config.Config) logging.Options {
	opts := logging.DefaultOptions()
	opts.File = cfg.LogFile
	opts.Compress = cfg.LogCompress
	if cfg.LogMaxSizeMB > 0 {
		opts.MaxSizeMB = cfg.LogMaxSizeMB
	}
	if cfg.LogMaxAgeDays > 0 {
		opts.MaxAgeDays = cfg.LogMaxAgeDays
	}
	return opts
}

// recordRun appends summary to the run ledger. Ledger failures never fail the run.
func recordRun(ctx context.Context, path string, summary *orchestrator.Summary, logger *slog.Logger) {
	if path == "" {
		return
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		logger.Warn("Run history unavailable", "path", path, "error", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, history.FromSummary(summary)); err != nil {
		logger.Warn("Failed to record run history", "error", err)
		return
	}
	logger.Debug("Run recorded", "path", store.Path(), "run_id", summary.RunID)
}

func promptAPIKey() (string, error) {
	var key string
	err := huh.NewInput().
		Title("RAGFlow API key").
		Description("Not set via --api-key, RAGSYNC_API_KEY or config file").
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("API key is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(key), nil
}
