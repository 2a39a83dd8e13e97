/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/myflix-app/apiserver/config"
	"github.com/myflix-app/apiserver/internal/logging"
	"github.com/myflix-app/apiserver/internal/seed"
	"github.com/myflix-app/apiserver/internal/server"
	"github.com/myflix-app/apiserver/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	seedFile      string
	seedAssetsDir string
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the movie and actor catalog",
	Long: `Load movies and actors from a JSON catalog file and optionally upload a
directory of poster images to object storage. Usage:

	myflix seed --file catalog.json --assets ./posters
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" && seedAssetsDir == "" {
			return errors.New("nothing to seed: pass --file and/or --assets")
		}

		cfg := config.LoadConfig()
		log := logging.New(cfg.Log.Level, cfg.Log.Format)
		ctx := cmd.Context()

		if seedFile != "" {
			f, err := os.Open(seedFile)
			if err != nil {
				return err
			}
			defer f.Close()

			catalog, err := seed.LoadCatalog(f)
			if err != nil {
				return err
			}

			docs, err := server.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = docs.Close(ctx)
			}()

			res, err := seed.Insert(ctx, docs, catalog, log)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"inserted": res.Inserted, "skipped": res.Skipped}).Info("catalog seeded")
		}

		if seedAssetsDir != "" {
			assets, err := storage.Open(ctx, cfg)
			if err != nil {
				return err
			}
			if assets == nil {
				return fmt.Errorf("--assets needs ASSETS_BACKEND to be set")
			}
			defer assets.Close()

			n, err := seed.UploadAssets(ctx, assets, seedAssetsDir, log)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"bucket": assets.Bucket(), "files": n}).Info("assets uploaded")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "", "catalog JSON file with movies and actors")
	seedCmd.Flags().StringVar(&seedAssetsDir, "assets", "", "directory of assets to upload")
}
