package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	router "github.com/dkeye/hotspot/internal/adapters/http"
	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Real-time chat rooms and random peer matching over WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogger(cfg.Log)
		return serve(cmd.Context(), cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	rootCmd.Flags().Int("port", 8080, "HTTP listen port")
	rootCmd.Flags().String("mode", "release", "gin mode: debug|release|test")
	rootCmd.Flags().String("store.driver", "memory", "message store: memory|sqlite|postgres|redis")
}

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	opts := orch.DefaultOptions()
	opts.LoadHistory = cfg.Chat.LoadHistory
	opts.HistoryLimit = cfg.Chat.HistoryLimit
	opts.StoreTimeout = cfg.Chat.StoreTimeout
	opts.StrictRelay = cfg.Match.StrictRelay
	o := orch.New(st, st, opts)

	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupRouter(gctx, cfg, o),
	}

	g.Go(func() error {
		return o.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("hotspot server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
