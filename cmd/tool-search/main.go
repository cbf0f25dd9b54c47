// Package main is the entry point for the tool-search command
package main

import (
	"os"

	"github.com/ashwinyue/tool-search/cmd/tool-search/app"
	"github.com/ashwinyue/tool-search/internal/logger"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
