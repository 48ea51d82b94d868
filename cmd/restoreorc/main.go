package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cuemby/restoreorc/pkg/config"
	"github.com/cuemby/restoreorc/pkg/log"
	"github.com/cuemby/restoreorc/pkg/metrics"
	"github.com/cuemby/restoreorc/pkg/orchestrator"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

var rootCmd = &cobra.Command{
	Use:   "restoreorc",
	Short: "Oracle 19c disaster-recovery restore orchestrator",
	Long: `restoreorc drives an Oracle 19c RMAN-based disaster-recovery
restore from a cold backup through an open, resetlogs-ready instance.

Configuration is layered from built-in defaults, /etc/restore.conf, the
Oracle home's plugin-local etc/restore.conf, and the process
environment (which wins). The environment variables read are the
upper-case configuration keys listed in pkg/config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRestore,
}

func init() {
	rootCmd.Flags().BoolP("continue", "c", false, "Resume an in-progress restore by probing live instance state")
	rootCmd.Flags().String("resume-from", "", "Resume from a named checkpoint: catalog|restore|recover")
	rootCmd.Flags().String("until-time", "", "Point-in-time recovery target, 'YYYY-MM-DD HH:MM:SS'")
	rootCmd.Flags().String("until-scn", "", "Point-in-time recovery target SCN")
	rootCmd.Flags().Bool("log-json", false, "Emit structured JSON logs instead of console output")
	rootCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this host:port for the run's duration")
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	return 0
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if v, _ := cmd.Flags().GetBool("continue"); v {
		cfg.ContinueMode = true
	}
	if v, _ := cmd.Flags().GetString("resume-from"); v != "" {
		cfg.ResumeFrom = v
	}
	if v, _ := cmd.Flags().GetString("until-time"); v != "" {
		cfg.UntilTime = v
	}
	if v, _ := cmd.Flags().GetString("until-scn"); v != "" {
		cfg.UntilSCN = v
	}
	if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	logJSON, _ := cmd.Flags().GetBool("log-json")

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: logJSON})

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr)
		defer stop()
	}

	// A timestamp alone can collide if two runs start within the same
	// second (e.g. a script retrying a failed launch); the uuid suffix
	// keeps <log-dir> unique per spec §6.2 without changing its sort order.
	sessionID := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	c, err := orchestrator.New(cfg, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer c.Close()

	if err := orchestrator.Run(c); err != nil {
		return err
	}
	return nil
}

// serveMetrics starts the Collector and an HTTP server exposing
// Handler() on addr, both for the run's duration. The returned stop
// function shuts both down; it never returns an error since a metrics
// endpoint failing is never grounds to fail the restore itself.
func serveMetrics(addr string) (stop func()) {
	collector := metrics.NewCollector()
	collector.Start(15 * time.Second)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()

	return func() {
		collector.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// exitCodeFor maps a failed run to the process exit code described in
// the command-line surface: 0 success (handled before this is called),
// 1 operator denial/validation/unrecoverable error, 124 timeout, or
// whatever a child tool itself returned.
func exitCodeFor(err error) int {
	if errors.Is(err, report.ErrOperatorDenied) || errors.Is(err, report.ErrRetypeMismatch) {
		return 1
	}
	var code exitCoder
	if errors.As(err, &code) {
		return code.ExitCode()
	}
	return 1
}

// exitCoder is implemented by errors that carry a child process's own
// exit code (e.g. a timed-out or failed RMAN/sqlplus invocation).
type exitCoder interface {
	ExitCode() int
}
