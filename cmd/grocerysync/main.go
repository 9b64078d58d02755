package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/grocerysync/internal/blobstore"
	"github.com/vbonduro/grocerysync/internal/blobstore/local"
	"github.com/vbonduro/grocerysync/internal/blobstore/s3store"
	"github.com/vbonduro/grocerysync/internal/config"
	"github.com/vbonduro/grocerysync/internal/db"
	"github.com/vbonduro/grocerysync/internal/docstore"
	"github.com/vbonduro/grocerysync/internal/docstore/memory"
	"github.com/vbonduro/grocerysync/internal/docstore/redisstore"
	"github.com/vbonduro/grocerysync/internal/docstore/sqlitestore"
	"github.com/vbonduro/grocerysync/internal/logging"
	"github.com/vbonduro/grocerysync/internal/service"
	"github.com/vbonduro/grocerysync/internal/store"
	"github.com/vbonduro/grocerysync/internal/vision"
	claudevision "github.com/vbonduro/grocerysync/internal/vision/claude"
	ollamavision "github.com/vbonduro/grocerysync/internal/vision/ollama"
	"github.com/vbonduro/grocerysync/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newDocBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s docstore: %w", cfg.DocstoreBackend, err)
	}
	defer closeBackend()

	docs, err := docstore.Open(ctx, backend, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := docs.Close(); err != nil {
			logger.Error("failed to close docstore", "error", err)
		}
	}()

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s blob store: %w", cfg.BlobBackend, err)
	}

	lists := store.NewListStore(docs, logger)
	items := store.NewItemStore(docs, blobs, logger)
	svc := service.NewGroceryService(lists, items, newVisionAnalyzer(cfg, logger), blobs, logger)

	logger.Info("backends ready",
		"docstore", cfg.DocstoreBackend,
		"blobs", cfg.BlobBackend,
		"vision", cfg.VisionBackend,
	)
	return web.NewServer(svc, logger).ListenAndServe(ctx, cfg.ListenAddr)
}

func newDocBackend(cfg *config.Config, logger *slog.Logger) (docstore.Backend, func(), error) {
	switch cfg.DocstoreBackend {
	case config.DocstoreMemory:
		logger.Warn("using in-memory docstore, data is lost on restart")
		return memory.New(), func() {}, nil
	case config.DocstoreRedis:
		b, err := redisstore.New(cfg.RedisURL, cfg.RedisNamespace, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				logger.Error("failed to close redis", "error", err)
			}
		}, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return sqlitestore.New(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}

func newBlobStore(cfg *config.Config) (blobstore.BlobStore, error) {
	if cfg.BlobBackend == config.BlobS3 {
		return s3store.New(s3store.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return local.NewLocalBlobStore(cfg.BlobLocalPath, cfg.PublicURL)
}

func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.VisionAnalyzer {
	switch cfg.VisionBackend {
	case config.VisionClaude:
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case config.VisionOllama:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("photo import disabled")
		return nil
	}
}
