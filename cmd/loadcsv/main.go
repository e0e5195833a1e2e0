package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yamdb/backend/config"
	"github.com/yamdb/backend/importer"
	"github.com/yamdb/backend/service"
	"github.com/yamdb/backend/store"
)

var (
	dir      string
	s3Bucket string
	s3Prefix string
)

var rootCmd = &cobra.Command{
	Use:   "loadcsv",
	Short: "Bulk-load the CSV fixture set into the database",
	Long: `Loads users.csv, category.csv, genre.csv, titles.csv,
genre_title.csv, review.csv and comments.csv from a local directory or an S3
bucket into the configured MongoDB database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		logrus.SetFormatter(&logrus.JSONFormatter{})

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				logrus.WithError(err).Warn("mongodb disconnect")
			}
		}()
		if err := db.EnsureIndexes(ctx); err != nil {
			return err
		}

		var src importer.Source
		switch {
		case s3Bucket != "":
			s3svc, err := service.NewS3Service(ctx, s3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
			if err != nil {
				return err
			}
			src = importer.S3Source{S3: s3svc, Prefix: s3Prefix}
		case dir != "":
			src = importer.DirSource{Dir: dir}
		default:
			return fmt.Errorf("either --dir or --s3-bucket is required")
		}

		imp := &importer.Importer{DB: db, Source: src}
		return imp.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&dir, "dir", "", "local directory holding the CSV files")
	rootCmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket holding the CSV files")
	rootCmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "key prefix inside the S3 bucket")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
