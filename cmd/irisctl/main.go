package main

import (
	"fmt"
	"os"

	"iris/internal/cli"
	"iris/internal/logger"
)

func main() {
	// stdout carries command output (CSV, keys), so logs go to stderr
	logger.Setup(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: logger.FormatText,
		Output: os.Stderr,
	})

	if err := cli.NewRootCmd(cli.OpenFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
