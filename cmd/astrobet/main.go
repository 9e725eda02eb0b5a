package main

import (
	"errors"
	"os"

	"github.com/wonny/astrobet/cmd/astrobet/commands"
	"github.com/wonny/astrobet/internal/contracts"
)

// main is the entry point for the astrobet CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/astrobet [command]
func main() {
	if err := commands.Execute(); err != nil {
		if errors.Is(err, contracts.ErrFatalConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
