package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/relay/internal/adapters/http"
	"github.com/dkeye/relay/internal/adapters/tcp"
	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/app/orch"
	"github.com/dkeye/relay/internal/config"
)

func rootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Line-oriented chat relay server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize zerolog global logger early so config.Load can use it.
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	root.Flags().Int("port", 0, "TCP port for the line protocol")
	root.Flags().Int("http-port", 0, "HTTP port for the status API and WebSocket (0 disables)")
	root.Flags().String("log-level", "", "debug, info, warn or error")
	bindFlag(v, root, "port", "port")
	bindFlag(v, root, "http_port", "http-port")
	bindFlag(v, root, "log_level", "log-level")

	root.AddCommand(channelsCmd())
	return root
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	} else if err != nil {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	reg := app.NewRegistry()
	o := orch.New(reg, app.PolicyFor(cfg.SlowConsumer), cfg.DefaultNick)

	g, ctx := errgroup.WithContext(ctx)

	lines := tcp.NewServer(o, tcp.Options{
		ReadLimit:    cfg.ReadLimit,
		SendBuffer:   cfg.SendBuffer,
		WriteTimeout: cfg.WriteTimeout,
	})
	g.Go(func() error {
		return lines.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
	})

	if cfg.HTTPPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		srv := &http.Server{
			Addr:    addr,
			Handler: router.SetupRouter(ctx, cfg, o),
		}
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("HTTP server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server forced to shutdown")
			}
			return nil
		})
	}

	log.Info().Int("port", cfg.Port).Msg("Chat server running")
	err := g.Wait()
	log.Info().Msg("Server exited gracefully")
	return err
}
