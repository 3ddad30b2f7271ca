package cmd

import (
	"context"
	"fmt"
	"log"

	"ShelfFM/config"
	"ShelfFM/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO blob bucket",
	Long:  `List the audio and cover objects stored in the MinIO bucket, or print aggregate size statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		client := storage.GetMinioClient()
		ctx := context.Background()

		var count int
		var totalSize int64
		for obj := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				log.Fatalf("Failed to list objects: %v", obj.Err)
			}
			count++
			totalSize += obj.Size
			if !minioStats {
				fmt.Printf("%10d  %s\n", obj.Size, obj.Key)
			}
		}

		fmt.Printf("\n%d objects, %.2f MB total\n", count, float64(totalSize)/(1024*1024))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by prefix (e.g. \"audio/\")")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print only aggregate statistics")

	minioCmd.Example = `  # List every object in the bucket
  shelffm minio

  # List only cover art
  shelffm minio -p "covers/"

  # Print aggregate statistics
  shelffm minio -s`
}
