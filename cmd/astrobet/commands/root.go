package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "astrobet",
	Short: "astrobet - 점성 영향 점수 엔진",
	Long: `astrobet Unified CLI

출생 차트(천체 위치, 하우스, 애스펙트)를 계산하고
선수 통계와 결합해 0-100 영향 점수를 산출합니다.

Usage:
  go run ./cmd/astrobet [command]

Examples:
  go run ./cmd/astrobet chart --date 1990-06-15 --time 12:00 --offset -240 --lat 40 --lon -75
  go run ./cmd/astrobet score run --dry-run
  go run ./cmd/astrobet api
  go run ./cmd/astrobet scheduler start
  go run ./cmd/astrobet db ping`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
