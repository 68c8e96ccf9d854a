package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/courtside-data/courtside.report/internal/config"
	"github.com/courtside-data/courtside.report/internal/db"
	"github.com/courtside-data/courtside.report/internal/ingest"
	"github.com/courtside-data/courtside.report/internal/pipeline"
	"github.com/courtside-data/courtside.report/internal/report"
)

var (
	playersPath   = flag.String("players", "", "Player detection stream (JSON)")
	ballPath      = flag.String("ball", "", "Ball detection stream (JSON)")
	keypointsPath = flag.String("keypoints", "", "Court keypoint stream (JSON)")
	teamsPath     = flag.String("teams", "", "Team assignment (JSON, optional)")
	configPath    = flag.String("config", "", "Tuning config overrides (JSON, optional)")
	dbPath        = flag.String("db", "", "Results database path (empty disables persistence)")
	migrationsDir = flag.String("migrations", "migrations", "Schema migrations directory")
	listen        = flag.String("listen", "", "Report server listen address (empty disables)")
	plotsDir      = flag.String("plots", "", "Speed plot output directory (empty disables)")
	verbose       = flag.Bool("v", false, "Enable per-frame trace logging")
)

func main() {
	flag.Parse()

	if *playersPath == "" || *ballPath == "" || *keypointsPath == "" {
		log.Fatal("-players, -ball and -keypoints are required")
	}

	writers := pipeline.LogWriters{Ops: os.Stderr, Diag: os.Stderr}
	if *verbose {
		writers.Trace = os.Stderr
	}
	pipeline.SetLogWriters(writers)

	tcfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if tcfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	store, teams, err := ingest.Load(ingest.Inputs{
		PlayersPath:   *playersPath,
		BallPath:      *ballPath,
		KeypointsPath: *keypointsPath,
		TeamsPath:     *teamsPath,
	}, tcfg.GetLookbackDepthFrames())
	if err != nil {
		log.Fatalf("failed to ingest inputs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	res, runErr := pipeline.Run(ctx, store, teams, tcfg, pipeline.Options{Metrics: metrics})
	if runErr != nil {
		// Partial results are still worth persisting and serving.
		log.Printf("pipeline stopped early: %v", runErr)
	}
	log.Printf("processed %d frames: %d events, %d anomalies, %d homography fallbacks",
		res.FramesProcessed, len(res.Events), len(res.Anomalies), res.HomographyFallbacks)

	var database *db.DB
	if *dbPath != "" {
		if database, err = db.Open(*dbPath); err != nil {
			log.Fatalf("failed to open results database: %v", err)
		}
		defer database.Close()
		if err = database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to migrate results database: %v", err)
		}
		runID, err := database.SaveRun(filepath.Base(*playersPath), res)
		if err != nil {
			log.Fatalf("failed to save run: %v", err)
		}
		log.Printf("saved run %s to %s", runID, *dbPath)
	}

	if *plotsDir != "" {
		files, err := report.SaveSpeedPlots(*plotsDir, res.Kinematics)
		if err != nil {
			log.Fatalf("failed to save speed plots: %v", err)
		}
		log.Printf("wrote %d speed plots to %s", len(files), *plotsDir)
	}

	if *listen == "" {
		return
	}

	srv := &http.Server{
		Addr:    *listen,
		Handler: report.NewServer(database, res, registry).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("report server listening on %s", *listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("report server: %v", err)
	}
}
