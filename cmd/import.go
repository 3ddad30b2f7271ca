package cmd

import (
	"context"
	"fmt"
	"log"

	"ShelfFM/config"
	"ShelfFM/core/importer"
	"ShelfFM/db"
	"ShelfFM/model"
	"ShelfFM/repository"
	"ShelfFM/storage"
	"ShelfFM/store"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [path...]",
	Short: "Import audio files or folders into the library",
	Long:  `Import audio files or folders into the library without starting the daemon. Re-imports of already known files keep their favorite flag and original import time; files the user deleted stay deleted.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseDB()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database with GORM: %v", err)
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrateModels(&model.FavoriteKey{}); err != nil {
			log.Fatalf("Failed to migrate models: %v", err)
		}

		blobs := storage.NewBlobStore(storage.GetMinioClient(), cfg.MinioBucket)
		gateway := store.NewPersistentGateway(db.DB, db.GormDB, blobs)

		trackRepo := repository.New(gateway)
		ctx := context.Background()
		if err := trackRepo.Hydrate(ctx); err != nil {
			log.Fatalf("Failed to hydrate track repository: %v", err)
		}

		imp := importer.New(trackRepo, func(p importer.Progress) {
			fmt.Printf("\r[%d/%d] %s", p.Completed, p.Total, p.Current)
		})

		for _, path := range args {
			report, err := imp.ImportPath(ctx, path, false)
			if err != nil {
				log.Fatalf("Import of %s failed: %v", path, err)
			}
			fmt.Printf("\n%s: %d imported, %d merged, %d skipped, %d failed\n",
				path, report.Imported, report.Merged, report.Skipped, report.Failed)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
