// Command hachiko reports migration state inferred from live GitHub
// signals: pull requests opened by coding agents and the migration's plan
// document. It stores no state of its own; every invocation recomputes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"hachiko/pkg/config"
	"hachiko/pkg/github"
	"hachiko/pkg/logx"
	"hachiko/pkg/metrics"
	"hachiko/pkg/migration"
	"hachiko/pkg/persistence"
)

// Version information - set by goreleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", config.DefaultConfigFilename, "Path to .hachiko.yml")
		migrationID = flag.String("migration", "", "Infer state for a single migration id")
		all         = flag.Bool("all", false, "Infer state for every configured migration")
		validateRef = flag.String("validate", "", "Validate migration conventions on a PR (number or branch)")
		porcelain   = flag.Bool("porcelain", false, "Force line-oriented key=value output")
		auditDB     = flag.String("audit-db", "", "Append inference snapshots to a SQLite audit log")
		volumeID    = flag.String("volume", "", "Report inference volume for a migration from Prometheus")
		promURL     = flag.String("prometheus", "http://localhost:9090", "Prometheus base URL for -volume")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("hachiko %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	// Load .env before config so GH_TOKEN and friends are available to gh.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if *volumeID != "" {
		os.Exit(runVolume(context.Background(), *promURL, *volumeID))
	}

	os.Exit(run(*configPath, *migrationID, *validateRef, *all, *porcelain, *auditDB))
}

// run contains the main application logic and returns an exit code.
// This allows defers to execute before os.Exit is called.
func run(configPath, migrationID, validateRef string, all, porcelain bool, auditDB string) int {
	logger := logx.NewLogger("hachiko")
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	client, err := github.NewClientFromSlug(cfg.Repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid repo in config: %v\n", err)
		return 1
	}

	engine := migration.NewEngine(client.WithListLimit(cfg.PRListLimit), migration.EngineOptions{
		Conventions: migration.Conventions{
			BranchPrefix: cfg.BranchPrefix,
			Label:        cfg.Label,
		},
		MigrationsDir: cfg.MigrationsDir,
		BaseBranch:    cfg.BaseBranch,
		Recorder:      metrics.NewRecorder(),
	})

	var audit *persistence.AuditLog
	if auditDB != "" {
		audit, err = persistence.Open(auditDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open audit log: %v\n", err)
			return 1
		}
		defer func() { _ = audit.Close() }()
	}

	// Non-TTY consumers get porcelain output unless told otherwise.
	porcelain = porcelain || !term.IsTerminal(int(os.Stdout.Fd()))

	switch {
	case validateRef != "":
		return runValidate(ctx, client, engine, validateRef)
	case migrationID != "":
		return runSingle(ctx, engine, audit, migrationID, porcelain)
	case all:
		return runBatch(ctx, engine, audit, cfg.Migrations, porcelain)
	default:
		fmt.Fprintln(os.Stderr, "Nothing to do: pass -migration <id>, -all, or -validate <ref>")
		logger.Debug("No operation selected")
		return 2
	}
}

func runSingle(ctx context.Context, engine *migration.Engine, audit *persistence.AuditLog, migrationID string, porcelain bool) int {
	info, err := engine.InferState(ctx, migrationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inference failed for %s: %v\n", migrationID, err)
		return 1
	}

	recordAudit(audit, migrationID, info)
	printState(migrationID, info, porcelain)

	if !porcelain {
		if modified, probeErr := engine.PlanLastModified(ctx, migrationID); probeErr == nil && !modified.IsZero() {
			fmt.Printf("  plan updated: %s\n", modified.Format(time.RFC3339))
		}
	}
	return 0
}

func runBatch(ctx context.Context, engine *migration.Engine, audit *persistence.AuditLog, migrationIDs []string, porcelain bool) int {
	if len(migrationIDs) == 0 {
		fmt.Fprintln(os.Stderr, "No migrations configured; add ids under 'migrations:' in .hachiko.yml")
		return 2
	}

	results := engine.BatchStates(ctx, migrationIDs)

	// Deterministic output order for automation consumers.
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		info := results[id]
		recordAudit(audit, id, info)
		if porcelain {
			if i > 0 {
				fmt.Println()
			}
			_ = info.WriteKeyValues(os.Stdout, id)
		} else {
			fmt.Printf("%-40s %s\n", id, info.Summary())
		}
	}
	return 0
}

func runValidate(ctx context.Context, client *github.Client, engine *migration.Engine, ref string) int {
	pr, err := client.GetPR(ctx, ref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch PR %s: %v\n", ref, err)
		return 1
	}

	conventions := engine.Conventions()
	result := conventions.ValidatePR(*pr)
	if result.Valid {
		fmt.Printf("PR #%d matches migration conventions (%d/3 signals)\n", pr.Number, result.SignalsPresent)
		if id := conventions.ExtractMigrationID(*pr); id != "" {
			fmt.Printf("  migration: %s\n", id)
		}
		return 0
	}

	fmt.Printf("PR #%d is missing migration conventions (%d/3 signals):\n", pr.Number, result.SignalsPresent)
	for _, recommendation := range result.Recommendations {
		fmt.Printf("  - %s\n", recommendation)
	}
	return 1
}

// runVolume reports how often inference has run for a migration, straight
// from Prometheus. Operator tooling; separate from the inference path.
func runVolume(ctx context.Context, prometheusURL, migrationID string) int {
	service, err := metrics.NewQueryService(prometheusURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create Prometheus client: %v\n", err)
		return 1
	}

	volume, err := service.GetInferenceVolume(ctx, migrationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query inference volume: %v\n", err)
		return 1
	}

	fmt.Printf("%s: %d inferences, %d errors, %d fallbacks (error ratio %.2f)\n",
		volume.MigrationID, volume.Inferences, volume.Errors, volume.Fallbacks, volume.ErrorRatio)
	return 0
}

func printState(migrationID string, info migration.StateInfo, porcelain bool) {
	if porcelain {
		_ = info.WriteKeyValues(os.Stdout, migrationID)
		return
	}

	fmt.Printf("%s: %s\n", migrationID, info.Summary())
	fmt.Printf("  current step: %d\n", info.CurrentStep)
	for _, pr := range info.OpenPRs {
		fmt.Printf("  open   #%d %s\n", pr.Number, pr.Title)
	}
	for _, pr := range info.ClosedPRs {
		disposition := "closed"
		if pr.IsMerged() {
			disposition = "merged"
		}
		fmt.Printf("  %s #%d %s\n", disposition, pr.Number, pr.Title)
	}
}

func recordAudit(audit *persistence.AuditLog, migrationID string, info migration.StateInfo) {
	if audit == nil {
		return
	}
	err := audit.Record(persistence.Snapshot{
		RecordedAt:     time.Now(),
		MigrationID:    migrationID,
		Status:         string(info.Status),
		CurrentStep:    info.CurrentStep,
		OpenPRs:        len(info.OpenPRs),
		ClosedPRs:      len(info.ClosedPRs),
		TotalTasks:     info.TotalTasks,
		CompletedTasks: info.CompletedTasks,
	})
	if err != nil {
		// Audit is observability; it never fails the run.
		fmt.Fprintf(os.Stderr, "Warning: audit write failed: %v\n", err)
	}
}
