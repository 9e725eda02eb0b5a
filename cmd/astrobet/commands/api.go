package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/astrobet/internal/api"
	"github.com/wonny/astrobet/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  GET  /metrics              - Prometheus metrics
  POST /api/v1/chart         - 차트 계산
  GET  /api/v1/scores        - 상위 점수 (--no-scores 시 비활성)
  GET  /api/v1/scores/{id}   - 엔티티 점수

Example:
  go run ./cmd/astrobet api
  go run ./cmd/astrobet api --port 8080
  go run ./cmd/astrobet api --no-scores`,
	Args: cobra.NoArgs,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiNoScores bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiNoScores, "no-scores", false, "저장소 없이 차트 엔드포인트만 제공")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== astrobet API Server ===")
	ctx := cmd.Context()

	// 1. Load config (차트 전용 모드는 저장소 자격증명 불필요)
	var a *app
	var err error
	if apiNoScores {
		a, err = newLocalApp(ctx)
	} else {
		a, err = newApp(ctx)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 2. Chart service
	charts, err := a.chartService()
	if err != nil {
		return err
	}

	deps := api.RouterDeps{
		Charts: handlers.NewChartHandler(charts, log),
		Logger: log,
	}
	if a.cfg.MetricsEnabled {
		deps.Metrics = a.metrics
	}

	// 3. Score store
	if !apiNoScores {
		_, store, err := a.backend(ctx)
		if err != nil {
			return err
		}
		deps.Scores = handlers.NewScoreHandler(store, a.scoreCache(), log)
	}

	// 4. Serve until SIGINT/SIGTERM
	server := api.New(a.cfg, log, api.NewRouter(deps))

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(sigCtx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
