// Package main is the entry point for the MediBook share engine daemon.
package main

import (
	"os"

	"github.com/medibook/share-engine/cmd/mbk-share-engine/app"
	"github.com/medibook/share-engine/pkg/logger"
)

func main() {
	logger.Initialize()
	defer func() { _ = logger.Sync() }()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
