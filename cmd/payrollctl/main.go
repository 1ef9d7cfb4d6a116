package main

import (
	"fmt"
	"os"

	"go-payroll/internal/bootstrap"
	"go-payroll/internal/cli"
	"go-payroll/internal/config"
)

func main() {
	logger, err := bootstrap.NewLogger(config.Config{Env: "cli", LogLevel: os.Getenv("LOG_LEVEL")})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	flush := bootstrap.Init(logger)

	err = cli.NewRootCommand(os.Stdout).Execute()
	flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
