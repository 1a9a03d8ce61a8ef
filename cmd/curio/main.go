package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/museumops/curio/common/version"
	"github.com/museumops/curio/internal/curio/app"
	"github.com/museumops/curio/internal/curio/config"
	"github.com/museumops/curio/internal/curio/observability"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: $CURIO_CONFIG or ./curio.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	fmt.Printf("Curio Report Assistant\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()
	if *showVersion {
		return
	}

	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	observability.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.Info("configuration loaded",
		"database", cfg.DatabasePath,
		"http_addr", cfg.HTTPAddr,
		"matrix", cfg.MatrixEnabled(),
		"report_service", cfg.ReportService.BaseURL,
	)

	curio, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Curio: %v\n", err)
		os.Exit(1)
	}
	defer curio.Stop()

	if err := curio.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Curio: %v\n", err)
		os.Exit(1)
	}
}
