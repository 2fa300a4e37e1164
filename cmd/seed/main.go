package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"tankboard/internal/config"
	"tankboard/internal/models"
	"tankboard/internal/repository"
	"tankboard/internal/services"
	"tankboard/internal/simulation"
	"tankboard/pkg/kv"
	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

func main() {
	// Parse command-line flags
	recordsFile := flag.String("file", "./tanks.json", "JSON file mapping tank IDs to records")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("tankboard-seed", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[SEED_START] Seeding tank records", logging.Fields{
		"version": "1.0.0",
		"file":    *recordsFile,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("tankboard_seed")

	// Initialize key-value store
	store, err := kv.NewRedisKV(&kv.Config{
		URL:         cfg.Redis.URL,
		DialTimeout: cfg.Redis.DialTimeout,
		OpTimeout:   cfg.Redis.OpTimeout,
	}, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Failed to connect to key-value store", logging.Fields{}, err)
	}
	defer store.Close()

	// Initialize repository and services
	tankRepo := repository.NewTankRepository(store, logger, cfg.Simulation.StateTTL)

	engine := simulation.NewEngine(simulation.Config{
		BucketSeconds:    cfg.Simulation.BucketSeconds,
		MaxStepPerBucket: cfg.Simulation.MaxStepPerBucket,
		Cooldown:         time.Duration(cfg.Simulation.CooldownDays) * 24 * time.Hour,
		MaxDailyCoolRate: cfg.Simulation.MaxDailyCoolRate,
		Salt:             cfg.Simulation.Salt,
	})

	adminService := services.NewAdminService(tankRepo, engine, logger, metricsCollector)

	// Read and apply the record set
	body, err := os.ReadFile(*recordsFile)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Failed to read records file", logging.Fields{
			"file": *recordsFile,
		}, err)
	}

	records, err := adminService.ReplaceRecords(ctx, body, time.Now())
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Failed to save records", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SEED COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Tanks Saved: %d\n", len(records))

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return models.TankNumber(ids[i]) < models.TankNumber(ids[j])
	})

	for _, id := range ids {
		rec := records[id]
		visibility := "hidden"
		if rec.Show {
			visibility = "visible"
		}
		fmt.Printf("  %-5s %-24s %s\n", id, rec.Beer, visibility)
	}

	logger.Info(ctx, "[SEED_COMPLETE] Records saved", logging.Fields{
		"count": len(records),
	})
}
