package commands

import (
	"fmt"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// RunMetadata describes a batch run before it starts
type RunMetadata struct {
	Store  string
	Source string
	Season string
	AsOf   string // empty = now
	DryRun bool
}

// PrintRunHeader prints a formatted batch header
func PrintRunHeader(meta RunMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Influence Scoring Batch")
	PrintSeparator()
	fmt.Printf("  Store     : %s\n", meta.Store)
	fmt.Printf("  Stats     : %s (season %s)\n", meta.Source, meta.Season)

	asOf := meta.AsOf
	if asOf == "" {
		asOf = "now"
	}
	fmt.Printf("  As of     : %s\n", asOf)

	if meta.DryRun {
		fmt.Println("  Mode      : dry-run (nothing persisted)")
	}
	PrintSeparator()
}

// PrintRunSummary prints the outcome counts of a batch run
func PrintRunSummary(s contracts.RunSummary) {
	fmt.Println()
	PrintSeparator()
	fmt.Printf("  Run ID    : %s\n", s.RunID)
	fmt.Printf("  Phase     : %s\n", s.Phase)
	fmt.Printf("  Total     : %d\n", s.Total)
	fmt.Printf("  Updated   : %d\n", s.Updated)
	fmt.Printf("  Skipped   : %d\n", s.Skipped)
	fmt.Printf("  Failed    : %d\n", s.Failed)
	fmt.Printf("  Duration  : %s\n", s.Duration.Round(time.Millisecond))
	PrintSeparator()

	switch {
	case s.Phase != contracts.PhaseDone:
		PrintError(fmt.Sprintf("Run %s did not complete", s.RunID))
	case s.Failed > 0:
		PrintWarning(fmt.Sprintf("%d of %d entities failed", s.Failed, s.Total))
	default:
		PrintSuccess(fmt.Sprintf("Run %s completed (%d/%d)", s.RunID, s.Processed(), s.Total))
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
