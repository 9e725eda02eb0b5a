package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/astrobet/internal/chart"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/store"
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "출생 차트 계산",
	Long: `한 시점/장소의 차트를 계산해 출력합니다. 저장소 연결이 필요 없습니다.

ZODIAC_MODE, HOUSE_SYSTEM, ASTRO_BODIES 설정을 따릅니다.

Example:
  go run ./cmd/astrobet chart --date 1990-06-15 --time 12:00 --offset -240 --lat 40 --lon -75
  go run ./cmd/astrobet chart --date 1990-06-15 --lat 40 --lon -75 --json`,
	Args: cobra.NoArgs,
	RunE: runChart,
}

var (
	chartDate   string
	chartTime   string
	chartOffset int
	chartLat    float64
	chartLon    float64
	chartJSON   bool
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&chartDate, "date", "", "날짜 (YYYY-MM-DD)")
	chartCmd.Flags().StringVar(&chartTime, "time", store.DefaultBirthTime, "현지 시각 (HH:MM)")
	chartCmd.Flags().IntVar(&chartOffset, "offset", 0, "UTC 오프셋 (분)")
	chartCmd.Flags().Float64Var(&chartLat, "lat", 0, "위도 (북 +)")
	chartCmd.Flags().Float64Var(&chartLon, "lon", 0, "경도 (동 +)")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "JSON 출력")
	_ = chartCmd.MarkFlagRequired("date")
	_ = chartCmd.MarkFlagRequired("lat")
	_ = chartCmd.MarkFlagRequired("lon")
}

func runChart(cmd *cobra.Command, args []string) error {
	m, err := store.ParseMoment(chartDate, chartTime, chartOffset)
	if err != nil {
		return err
	}
	loc := contracts.GeoCoordinate{Latitude: chartLat, Longitude: chartLon}

	a, err := newLocalApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.chartService()
	if err != nil {
		return err
	}

	out, err := svc.Render(cmd.Context(), m, loc)
	if err != nil {
		return err
	}

	if chartJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printChart(m, loc, out)
	return nil
}

func printChart(m contracts.Moment, loc contracts.GeoCoordinate, out *chart.Output) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s  @ %.4f, %.4f\n", m, loc.Latitude, loc.Longitude)
	fmt.Printf("  %s / %s", out.ZodiacMode, out.HouseSystem)
	if out.Degraded {
		fmt.Print(" (polar fallback)")
	}
	fmt.Println()
	PrintSeparator()

	widths := []int{3, 9, 12, 8, 6, 2}
	PrintTableHeader([]string{"", "Body", "Sign", "Degree", "House", "R"}, widths)
	for _, b := range out.Bodies {
		retro := ""
		if b.Retrograde {
			retro = "℞"
		}
		PrintTableRow([]string{
			b.Symbol,
			b.Name,
			b.Sign,
			strconv.FormatFloat(b.Degree, 'f', 2, 64),
			strconv.Itoa(b.House),
			retro,
		}, widths)
	}

	fmt.Println()
	PrintKeyValue("Ascendant", strconv.FormatFloat(out.Ascendant, 'f', 2, 64), 10)
	PrintKeyValue("MC", strconv.FormatFloat(out.MC, 'f', 2, 64), 10)
	PrintKeyValue("Moon", fmt.Sprintf("%s (%.2f)", out.MoonPhaseName, out.MoonPhase), 10)

	if len(out.Aspects) > 0 {
		fmt.Println()
		widths = []int{9, 9, 15, 8, 8}
		PrintTableHeader([]string{"A", "B", "Aspect", "Orb", "Motion"}, widths)
		for _, asp := range out.Aspects {
			motion := "separate"
			if asp.Applying {
				motion = "apply"
			}
			PrintTableRow([]string{
				asp.BodyA,
				asp.BodyB,
				asp.Type,
				strconv.FormatFloat(asp.Orb, 'f', 2, 64),
				motion,
			}, widths)
		}
	}
	PrintDoubleSeparator()
}
