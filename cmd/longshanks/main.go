package main

import (
	"os"

	"github.com/wonny/longshanks/cmd/longshanks/commands"
)

// main is the entry point for the Longshanks CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/longshanks [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
