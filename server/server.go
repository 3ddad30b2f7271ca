package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ShelfFM/cache"
	"ShelfFM/config"
	"ShelfFM/core/catalog"
	"ShelfFM/core/importer"
	"ShelfFM/core/player"
	"ShelfFM/core/view"
	"ShelfFM/db"
	"ShelfFM/logger"
	"ShelfFM/model"
	"ShelfFM/repository"
	"ShelfFM/storage"
	"ShelfFM/store"
)

// Start wires the backing stores, the library and the playback engine
// together and serves the remote-control API until interrupted.
func Start() {
	cfg := config.Load()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.FavoriteKey{}); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	blobs := storage.NewBlobStore(storage.GetMinioClient(), cfg.MinioBucket)
	gateway := store.NewPersistentGateway(db.DB, db.GormDB, blobs)

	trackRepo := repository.New(gateway)
	ctx := context.Background()
	if err := trackRepo.Hydrate(ctx); err != nil {
		logger.Fatal("failed to hydrate track repository", logger.ErrorField(err))
	}

	// Bundled catalog: idempotent, deleted entries stay deleted.
	if cfg.EmbeddedManifest != "" {
		if _, err := catalog.Sync(ctx, trackRepo, cfg.EmbeddedManifest); err != nil {
			logger.Warn("embedded catalog sync failed", logger.ErrorField(err))
		}
	}

	viewEngine := view.NewEngine()
	hub := NewEventHub()
	queueCache := cache.NewQueueCache(db.RedisClient)

	engine := player.NewEngine(trackRepo, player.NewBeepSink(),
		player.WithQueueSaver(queueCache),
		player.WithOnChange(hub.Broadcast),
	)

	// Resume the queue the daemon had when it stopped.
	if snapshot, err := queueCache.Load(ctx); err != nil {
		logger.Warn("queue snapshot load failed", logger.ErrorField(err))
	} else if snapshot != nil {
		engine.RestoreQueue(*snapshot)
	}

	imp := importer.New(trackRepo, func(p importer.Progress) {
		logger.Debug("import progress",
			logger.Int("completed", p.Completed),
			logger.Int("total", p.Total),
			logger.String("current", p.Current))
	})

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	var watcher *importer.Watcher
	if cfg.WatchDir != "" {
		var err error
		// Dropped-file imports must invalidate the memoized view so the
		// track list reflects them immediately.
		watcher, err = importer.NewWatcher(imp, cfg.WatchDir, viewEngine.Invalidate)
		if err != nil {
			logger.Warn("watch folder unavailable", logger.String("dir", cfg.WatchDir), logger.ErrorField(err))
		} else {
			watcher.Start(watchCtx)
		}
	}

	apiHandler := NewAPIHandler(trackRepo, engine, viewEngine, imp, hub, cfg)
	server.Handler = newRouter(apiHandler)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	if watcher != nil {
		watcher.Stop()
	}
	cancelWatch()

	// Stop playback synchronously and release the audio resource before the
	// stores go away.
	engine.Shutdown()
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
