package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"sftpflow/contract"
	"sftpflow/domain"
	"sftpflow/infrastructure/sftpfs"
	"sftpflow/infrastructure/storage"
	"sftpflow/internal"
	"sftpflow/runtime"
	"sftpflow/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the engine lifecycle, and
// centralizes error reporting so deferred cleanups always execute.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	if len(os.Args) < 4 {
		return fmt.Errorf("usage: sftpflow upload <remote-dir> <local-file>... | sftpflow download <local-dir> <remote-file>...")
	}
	command, destDir, sources := os.Args[1], os.Args[2], os.Args[3:]

	// 2. Database (BadgerDB journal)
	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Remote session
	session, err := sftpfs.Dial(sftpfs.Config{
		Host:     cfg.SftpHost,
		Port:     cfg.SftpPort,
		User:     cfg.SftpUser,
		Password: cfg.SftpPassword,
		KeyFile:  cfg.SftpKeyFile,
		Timeout:  cfg.DialTimeout,
	}, log)
	if err != nil {
		return err
	}
	defer session.Close()

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Dispatcher under supervision
	dispatcher := runtime.NewDispatcher(log, cfg.DispatcherBuffer)
	sup := runtime.NewSupervisor(log).Add(dispatcher)
	go sup.Run(ctx)
	defer sup.Stop()

	// 6. Engine assembly
	journal := storage.NewTransferJournal(db, log)
	tracker := services.NewResumeStateTracker(session, log)
	executor := services.NewTransferExecutor(session, tracker, &logRefresher{log: log}, log)
	queue := services.NewTransferQueue(executor, tracker, dispatcher, journal, log, cfg.CompletedTTL)
	defer queue.Close()

	if restored, err := queue.RestoreFromJournal(ctx); err != nil {
		log.Warn("Journal restore failed", "error", err)
	} else if restored > 0 {
		log.Info("Picked up transfers from previous run", "count", restored)
	}

	coordinator := services.NewBatchCoordinator(queue, session, log)
	resolver := policyResolver(cfg.ConflictPolicy)

	// 7. Classify and enqueue
	var enqueued int
	switch command {
	case "upload":
		enqueued, err = coordinator.UploadFiles(ctx, sources, destDir, resolver)
	case "download":
		enqueued, err = coordinator.DownloadFiles(ctx, sources, destDir, resolver)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}
	log.Info("Batch classified", "enqueued", enqueued)

	// 8. Wait out the drain, rendering progress
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for queue.HasActive() {
		select {
		case <-ctx.Done():
			log.Info("Interrupted, cancelling transfers")
			queue.CancelAll()
			renderQueue(queue.Snapshot())
			return nil
		case <-ticker.C:
			renderQueue(queue.Snapshot())
		}
	}
	renderQueue(queue.Snapshot())
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// policyResolver turns the configured non-interactive default into a
// resolver that answers every conflict the same way.
func policyResolver(policy string) contract.ConflictResolver {
	action := domain.ActionOverwrite
	switch policy {
	case "skip":
		action = domain.ActionSkip
	case "resume":
		action = domain.ActionResume
	case "keepboth":
		action = domain.ActionKeepBoth
	}
	return func(domain.ConflictRequest) *domain.ConflictDecision {
		return &domain.ConflictDecision{Action: action, ApplyToAll: true}
	}
}

func renderQueue(snap services.QueueSnapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Dir", "Status", "Progress", "Speed", "Error"})
	for _, rec := range snap.Records {
		table.Append([]string{
			rec.FileName,
			rec.Direction.String(),
			colorStatus(rec.Status),
			fmt.Sprintf("%.1f%% (%d/%d)", rec.Percent, rec.TransferredBytes, rec.TotalBytes),
			formatRate(rec.BytesPerSec),
			rec.ErrorMessage,
		})
	}
	table.Render()
	fmt.Printf("active=%d overall=%.1f%%\n", snap.ActiveCount, snap.OverallPercent)
}

func colorStatus(s domain.TransferStatus) string {
	switch s {
	case domain.StatusCompleted:
		return color.Green.Sprint(s.String())
	case domain.StatusFailed:
		return color.Red.Sprint(s.String())
	case domain.StatusCancelled:
		return color.Yellow.Sprint(s.String())
	case domain.StatusInProgress:
		return color.Cyan.Sprint(s.String())
	default:
		return s.String()
	}
}

func formatRate(bps float64) string {
	switch {
	case bps >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bps/(1<<20))
	case bps >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bps/(1<<10))
	case bps > 0:
		return fmt.Sprintf("%.0f B/s", bps)
	default:
		return "-"
	}
}

// logRefresher stands in for the client's directory browsers: the CLI has no
// panels to reload, so completion hooks only log.
type logRefresher struct {
	log *slog.Logger
}

func (r *logRefresher) RefreshRemote() { r.log.Debug("Remote browser refresh requested") }
func (r *logRefresher) RefreshLocal()  { r.log.Debug("Local browser refresh requested") }
