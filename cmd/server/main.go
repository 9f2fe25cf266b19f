// Package main runs the plate recognition API server.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/snaptaplaque/plateapi/internal/api"
	"github.com/snaptaplaque/plateapi/internal/auth"
	"github.com/snaptaplaque/plateapi/internal/config"
	"github.com/snaptaplaque/plateapi/internal/database"
	"github.com/snaptaplaque/plateapi/internal/queue"
	"github.com/snaptaplaque/plateapi/internal/repository"
	"github.com/snaptaplaque/plateapi/internal/storage"
	"github.com/snaptaplaque/plateapi/internal/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var users repository.UserStore
	var detections repository.DetectionStore
	if cfg.DatabaseURL == "memory" {
		// Development mode: everything lives in process memory.
		log.Printf("using in-memory stores, data will not survive restarts")
		users = storage.NewMemoryUserStore()
		detections = storage.NewMemoryDetectionStore()
	} else {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		users = repository.NewUserRepository(pool)
		detections = repository.NewPredictionRepository(pool)
	}

	engines, info, err := buildEngines(cfg)
	if err != nil {
		log.Fatalf("load models: %v", err)
	}
	enginePool := vision.NewPool(engines)
	defer enginePool.Close()
	pipeline := vision.NewPipeline(enginePool, vision.Options{
		Combine:      cfg.OCRCombine,
		InferTimeout: cfg.InferTimeout,
	})

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	var archiver queue.Archiver
	if cfg.ArchiveEnabled {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		archiver = queue.NewAsynqArchiver(client)
	}

	srv := api.New(cfg, users, detections, pipeline, tokens, archiver, info)
	log.Printf("plate API listening on %s (engines=%d loaded=%v)", cfg.Address, enginePool.Size(), info.Loaded)
	if err := srv.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}

// buildEngines constructs one detector+reader pair per pool slot. Missing
// model files are not fatal: the server comes up answering 503 on predict and
// loaded=false on /model/info, which keeps health checks and auth usable
// while weights are being provisioned.
func buildEngines(cfg *config.Config) ([]*vision.Engine, api.ModelInfo, error) {
	engines := make([]*vision.Engine, 0, cfg.EnginePoolSize)
	for i := 0; i < cfg.EnginePoolSize; i++ {
		detector, err := vision.NewDNNDetector(cfg.DetectorModelPath, cfg.DetectorConfigPath, cfg.DetectConfidence)
		if err != nil {
			if errors.Is(err, vision.ErrModelUnavailable) {
				log.Printf("models unavailable, serving degraded: %v", err)
				return unavailableEngines(cfg.EnginePoolSize), api.ModelInfo{
					ModelType: "opencv-dnn",
					Pipeline:  "detect+ocr",
				}, nil
			}
			return nil, api.ModelInfo{}, err
		}
		reader, err := vision.NewOCRReader(cfg.ReaderModelPath, cfg.ReaderCharset, cfg.ReadConfidence, cfg.PlatePattern)
		if err != nil {
			if errors.Is(err, vision.ErrModelUnavailable) {
				log.Printf("models unavailable, serving degraded: %v", err)
				return unavailableEngines(cfg.EnginePoolSize), api.ModelInfo{
					ModelType: "opencv-dnn",
					Pipeline:  "detect+ocr",
				}, nil
			}
			return nil, api.ModelInfo{}, err
		}
		engines = append(engines, &vision.Engine{Detector: detector, Reader: reader})
	}
	return engines, api.ModelInfo{Loaded: true, ModelType: "opencv-dnn", Pipeline: "detect+ocr"}, nil
}

func unavailableEngines(n int) []*vision.Engine {
	engines := make([]*vision.Engine, 0, n)
	for i := 0; i < n; i++ {
		engines = append(engines, &vision.Engine{
			Detector: &vision.StubDetector{Err: vision.ErrModelUnavailable},
			Reader:   &vision.StubReader{Err: vision.ErrModelUnavailable},
		})
	}
	return engines
}
