package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/pipeline"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "영향 점수 배치 및 조회",
	Long: `영향 점수를 재계산하거나 저장된 점수를 조회합니다.

Subcommands:
  run   - 전체 모집단 점수 재계산
  get   - 특정 엔티티 점수 조회
  top   - 상위 점수 목록

Example:
  go run ./cmd/astrobet score run
  go run ./cmd/astrobet score run --as-of 2024-03-01 --dry-run
  go run ./cmd/astrobet score get 201939
  go run ./cmd/astrobet score top --limit 10`,
}

var (
	scoreRunCmd = &cobra.Command{
		Use:   "run",
		Short: "전체 모집단 점수 재계산",
		Long: `모집단을 불러와 통계를 매칭하고 차트를 계산해 점수를 저장합니다.

엔티티는 한 번에 하나씩 순서대로 처리되며 BATCH_PACING 간격을 둡니다.
엔티티 단위 실패는 집계만 하고 배치를 중단하지 않습니다.
설정 오류나 모집단/통계 조회 실패 시 non-zero로 종료합니다.`,
		Args: cobra.NoArgs,
		RunE: runScoreBatch,
	}

	scoreGetCmd = &cobra.Command{
		Use:   "get [entity_id]",
		Short: "특정 엔티티 점수 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  getScore,
	}

	scoreTopCmd = &cobra.Command{
		Use:   "top",
		Short: "상위 점수 목록",
		Args:  cobra.NoArgs,
		RunE:  topScores,
	}
)

var (
	scoreAsOf   string
	scoreDryRun bool
	scoreLimit  int
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreRunCmd)
	scoreCmd.AddCommand(scoreGetCmd)
	scoreCmd.AddCommand(scoreTopCmd)

	scoreRunCmd.Flags().StringVar(&scoreAsOf, "as-of", "", "저장 시각 기준일 (YYYY-MM-DD, 기본: 현재)")
	scoreRunCmd.Flags().BoolVar(&scoreDryRun, "dry-run", false, "저장 없이 계산만")
	scoreTopCmd.Flags().IntVar(&scoreLimit, "limit", 25, "조회 개수")
}

// parseAsOf parses --as-of as midnight UTC
func parseAsOf(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: --as-of must be YYYY-MM-DD: %v", contracts.ErrInvalidInput, err)
	}
	return &t, nil
}

func runScoreBatch(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(scoreAsOf)
	if err != nil {
		return err
	}

	// Ctrl+C 시 현재 엔티티 이후 중단
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, _, err := a.pipeline(ctx)
	if err != nil {
		a.log.WithError(err).Error("Failed to assemble pipeline")
		return err
	}

	PrintRunHeader(RunMetadata{
		Store:  a.cfg.Store.Driver,
		Source: a.cfg.Batch.StatsSource,
		Season: a.cfg.Batch.Season,
		AsOf:   scoreAsOf,
		DryRun: scoreDryRun,
	})

	summary, err := p.Run(ctx, pipeline.RunOptions{AsOf: asOf, DryRun: scoreDryRun})
	PrintRunSummary(summary)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			PrintWarning("Batch cancelled")
		}
		return err
	}

	if cache := a.scoreCache(); cache != nil && !scoreDryRun && summary.Updated > 0 {
		n, err := cache.PurgeScores(ctx)
		if err != nil {
			a.log.WithError(err).Warn("Failed to purge cached scores")
		} else {
			a.log.WithField("keys", n).Debug("Purged cached scores")
		}
	}
	return nil
}

func getScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	_, store, err := a.backend(ctx)
	if err != nil {
		return err
	}

	rec, err := store.GetScore(ctx, args[0])
	if errors.Is(err, contracts.ErrNotFound) {
		PrintWarning(fmt.Sprintf("No score for %s", args[0]))
		return err
	}
	if err != nil {
		return fmt.Errorf("get score: %w", err)
	}

	PrintDoubleSeparator()
	PrintKeyValue("Entity", rec.EntityID, 10)
	PrintKeyValue("Score", strconv.FormatFloat(rec.NormalizedScore, 'f', 0, 64), 10)
	PrintKeyValue("Raw", strconv.FormatFloat(rec.RawScore, 'f', 4, 64), 10)
	PrintKeyValue("Profile", rec.Profile, 10)
	PrintKeyValue("Updated", rec.ComputedAt.Format(time.RFC3339), 10)
	PrintDoubleSeparator()
	return nil
}

func topScores(cmd *cobra.Command, args []string) error {
	if scoreLimit < 1 {
		return fmt.Errorf("%w: --limit must be positive", contracts.ErrInvalidInput)
	}
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	_, store, err := a.backend(ctx)
	if err != nil {
		return err
	}

	records, err := store.TopScores(ctx, scoreLimit)
	if err != nil {
		return fmt.Errorf("top scores: %w", err)
	}

	widths := []int{4, 16, 6, 10, 20}
	PrintTableHeader([]string{"#", "Entity", "Score", "Raw", "Updated"}, widths)
	for i, rec := range records {
		PrintTableRow([]string{
			strconv.Itoa(i + 1),
			rec.EntityID,
			strconv.FormatFloat(rec.NormalizedScore, 'f', 0, 64),
			strconv.FormatFloat(rec.RawScore, 'f', 2, 64),
			rec.ComputedAt.Format("2006-01-02 15:04"),
		}, widths)
	}
	return nil
}
