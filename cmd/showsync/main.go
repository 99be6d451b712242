// Package main is the entry point for the showsync service.
package main

import (
	"log/slog"
	"os"

	"github.com/stacklok/showsync/cmd/showsync/app"
)

func main() {
	// Logs go to stderr so stdout stays clean for `version --format json` and `sync`
	slog.SetDefault(slog.New(app.NewLogHandler(os.Stderr, app.LogLevelFromEnv())))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
