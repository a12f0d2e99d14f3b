package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/klu-lostfound/internal/config"
	"github.com/klu-lostfound/internal/db"
	"github.com/klu-lostfound/internal/imagesim"
	"github.com/klu-lostfound/internal/logging"
	"github.com/klu-lostfound/internal/match"
	"github.com/klu-lostfound/internal/web"
)

func main() {
	var configFile string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Lost and found web interface",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			serve(configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "JSON configuration file (defaults to environment variables)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configFile string) {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	if err := logging.Setup(config.LoadLogging()); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging configuration: %v\n", err)
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	webConfig := web.ConfigFromEnv()
	if configFile != "" {
		cfg, err := web.LoadConfig(fs, configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
		webConfig = cfg
	}

	matching, err := config.LoadMatching()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid matching configuration")
	}

	dbConn, err := db.NewConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbConn.Close()

	dbConn.DB.SetMaxOpenConns(webConfig.Database.MaxConnections)
	dbConn.DB.SetMaxIdleConns(webConfig.Database.MaxConnections / 2)
	dbConn.DB.SetConnMaxLifetime(time.Hour)

	store := db.NewReportStore(dbConn.DB)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare schema")
	}

	images := imagesim.NewComparator(afero.NewBasePathFs(fs, webConfig.Uploads.Dir), imagesim.DefaultConfig())

	server, err := web.NewServer(webConfig, web.Deps{
		Reports:     store,
		Recorder:    store,
		DB:          dbConn.DB,
		Engine:      match.NewEngine(match.EngineConfig{Images: images}),
		Images:      images,
		Options:     matching.Options(),
		Exploratory: matching.ExploratoryOptions(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	log.Info().
		Str("host", webConfig.Server.Host).
		Int("port", webConfig.Server.Port).
		Bool("rate_limit", webConfig.RateLimit.Enabled).
		Bool("record_history", webConfig.Features.RecordHistory).
		Bool("enhanced", webConfig.Features.EnhancedEnabled).
		Float64("threshold", matching.Threshold).
		Msg("lost and found web interface")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
