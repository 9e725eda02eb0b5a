package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/wonny/astrobet/internal/scheduler"
	"github.com/wonny/astrobet/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/astrobet scheduler start
  go run ./cmd/astrobet scheduler list
  go run ./cmd/astrobet scheduler run influence_scoring`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- influence_scoring: BATCH_SCHEDULE (기본 매일 06:00, 전체 점수 재계산)
- store_health: 5분마다 (저장소 Ping)

METRICS_ENABLED=true 이면 METRICS_PORT에서 /metrics 를 제공합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		Args: cobra.NoArgs,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		Args:  cobra.NoArgs,
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== astrobet Scheduler ===")
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	var metricsServer *http.Server
	if a.cfg.MetricsEnabled {
		metricsServer = serveMetrics(a)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %-20s next %s\n", jobName, next.Format(time.RFC3339))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	widths := []int{20, 16, 20}
	PrintTableHeader([]string{"Job", "Schedule", "Next Run"}, widths)
	for _, jobName := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(jobName); err == nil {
			next = t.Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{jobName, stats[jobName].Schedule, next}, widths)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// 수동 실행은 재시도 없이 한 번만
	sched, err := initScheduler(ctx, a, scheduler.WithRetry(0, 0))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		PrintError(fmt.Sprintf("%s failed after %s: %v", jobName, result.Duration.Round(time.Millisecond), err))
		return err
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func initScheduler(ctx context.Context, a *app, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	p, store, err := a.pipeline(ctx)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(a.log, opts...)

	// Register jobs
	if err := sched.AddJob(jobs.NewScoringJob(p, a.cfg.Batch.Schedule, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewStoreHealthJob(store, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

// serveMetrics exposes /metrics on METRICS_PORT while the scheduler runs
func serveMetrics(a *app) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", a.metrics.Handler()).Methods("GET")

	srv := &http.Server{
		Addr:              ":" + a.cfg.MetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Metrics server stopped")
		}
	}()

	a.log.WithField("port", a.cfg.MetricsPort).Info("Serving metrics")
	return srv
}
