package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/internal/store"
	"github.com/wonny/astrobet/internal/transits"
)

// ephemerisCmd represents the ephemeris command
var ephemerisCmd = &cobra.Command{
	Use:   "ephemeris",
	Short: "일별 트랜짓 테이블",
	Long: `연도별 일일 트랜짓(달 위상, 천체 사인, 수성 역행, 애스펙트)을
계산해 ephemeris 테이블에 저장합니다.

Example:
  go run ./cmd/astrobet ephemeris generate --year 2025
  go run ./cmd/astrobet ephemeris generate --year 2023 --dry-run`,
}

var ephemerisGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "한 해의 일별 트랜짓 생성 및 저장",
	Long: `1월 1일부터 12월 31일까지 매일 00:00 UTC 기준으로 계산합니다.
같은 날짜는 덮어쓰므로 재실행해도 안전합니다.`,
	Args: cobra.NoArgs,
	RunE: runEphemerisGenerate,
}

var (
	ephemerisYear   int
	ephemerisDryRun bool
)

func init() {
	rootCmd.AddCommand(ephemerisCmd)
	ephemerisCmd.AddCommand(ephemerisGenerateCmd)

	ephemerisGenerateCmd.Flags().IntVar(&ephemerisYear, "year", time.Now().UTC().Year(), "대상 연도")
	ephemerisGenerateCmd.Flags().BoolVar(&ephemerisDryRun, "dry-run", false, "저장 없이 계산만")
}

func runEphemerisGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// dry-run은 저장소 자격증명 불필요
	var (
		a   *app
		err error
	)
	if ephemerisDryRun {
		a, err = newLocalApp(ctx)
	} else {
		a, err = newApp(ctx)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := a.transitGenerator()
	if err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Printf("Ephemeris %d (%s)\n", ephemerisYear, a.cfg.Astro.ZodiacMode)
	PrintDoubleSeparator()

	start := time.Now()
	days, err := gen.Year(ctx, ephemerisYear)
	if err != nil {
		return err
	}
	printTransitSummary(days)

	if ephemerisDryRun {
		PrintWarning(fmt.Sprintf("Dry run: %d days computed, nothing stored", len(days)))
		return nil
	}

	ts, err := a.transitStore(ctx)
	if err != nil {
		return err
	}
	if err := ts.UpsertTransits(ctx, days); err != nil {
		a.log.WithError(err).Error("Failed to store ephemeris")
		return err
	}

	a.log.WithFields(map[string]interface{}{
		"year":     ephemerisYear,
		"days":     len(days),
		"store":    a.cfg.Store.Driver,
		"duration": time.Since(start).String(),
	}).Info("Ephemeris stored")
	PrintSuccess(fmt.Sprintf("Stored %d days in %s", len(days), a.cfg.Store.Driver))
	return nil
}

// transitSummary is what generate reports before storing
type transitSummary struct {
	Days       int
	FullMoons  int
	NewMoons   int
	Retrograde [][2]time.Time
}

// summarizeTransits counts lunation days and groups Mercury retrograde runs.
// A full or new moon is counted on the first day of its phase bucket.
func summarizeTransits(days []contracts.DailyTransit) transitSummary {
	sum := transitSummary{
		Days:       len(days),
		Retrograde: transits.RetrogradePeriods(days, contracts.Mercury),
	}

	prev := ""
	for _, d := range days {
		name := ephemeris.PhaseName(d.MoonPhase)
		if name != prev {
			switch name {
			case "full moon":
				sum.FullMoons++
			case "new moon":
				sum.NewMoons++
			}
		}
		prev = name
	}
	return sum
}

func printTransitSummary(days []contracts.DailyTransit) {
	sum := summarizeTransits(days)

	PrintKeyValue("Days", fmt.Sprintf("%d", sum.Days), 16)
	PrintKeyValue("Full moons", fmt.Sprintf("%d", sum.FullMoons), 16)
	PrintKeyValue("New moons", fmt.Sprintf("%d", sum.NewMoons), 16)
	PrintKeyValue("Bodies", fmt.Sprintf("%d", len(store.TransitBodies)), 16)
	fmt.Println()

	widths := []int{12, 12, 6}
	PrintTableHeader([]string{"☿ Rx from", "to", "days"}, widths)
	for _, p := range sum.Retrograde {
		n := int(p[1].Sub(p[0]).Hours()/24) + 1
		PrintTableRow([]string{
			p[0].Format(contracts.DateLayout),
			p[1].Format(contracts.DateLayout),
			fmt.Sprintf("%d", n),
		}, widths)
	}
	fmt.Println()
}
