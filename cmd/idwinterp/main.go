package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"

	"idwinterp/pkg/config"
	"idwinterp/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "idw.yaml", "Path to YAML config file")
	envPath := flag.String("env", ".env", "Optional .env file with IDW_* overrides")
	initConfig := flag.Bool("init", false, "Write a default config file to -config and exit")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (overrides config)")
	power := flag.Float64("power", math.NaN(), "Power parameter (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default config written to %s\n", *configPath)
		return
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}

	// Flags win over the environment and the config file
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *workers > 0 {
		cfg.Interpolation.Workers = *workers
	}
	if !math.IsNaN(*power) {
		cfg.Interpolation.Power = *power
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.NewRunner(cfg, pipeline.NewLogger(cfg.Output.Verbose))
	result, err := runner.Process(ctx)
	if err != nil {
		log.Fatalf("Interpolation failed: %v", err)
	}

	fmt.Printf("\nInterpolated %d samples in %.3f seconds\n", len(cfg.Samples), result.Elapsed.Seconds())
	fmt.Printf("Power: %g\n", result.Power)
	if math.IsNaN(result.RMSE) {
		fmt.Println("Leave-one-out RMSE: n/a (need at least 2 samples)")
	} else {
		fmt.Printf("Leave-one-out RMSE: %.6f\n", result.RMSE)
	}

	if len(result.Queries) > 0 {
		fmt.Println("\nQueries:")
		for _, q := range result.Queries {
			fmt.Printf("  %v -> %g\n", q.Position, q.Value)
		}
	}

	if result.Grid != nil {
		vol := result.Volume
		fmt.Printf("\nGrid %dx%dx%d: min %g, max %g, mean %g, std-dev %g",
			vol.Width, vol.Height, vol.Depth,
			result.Grid.Min, result.Grid.Max, result.Grid.Mean, result.Grid.StdDev)
		if result.Grid.NaNCount > 0 {
			fmt.Printf(", %d undefined cells", result.Grid.NaNCount)
		}
		if result.Grid.InfCount > 0 {
			fmt.Printf(", %d infinite cells", result.Grid.InfCount)
		}
		fmt.Println()
	}

	if cfg.Output.Dir != "" {
		fmt.Printf("\nResults saved to: %s\n", cfg.Output.Dir)
	}
}
