package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/virtuoso/internal/config"
	"github.com/satindergrewal/virtuoso/internal/recital"
	"github.com/satindergrewal/virtuoso/internal/render"
	"github.com/satindergrewal/virtuoso/internal/server"
	"github.com/satindergrewal/virtuoso/internal/stream"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recital server",
		Long: `Run the continuous recital server.

The server keeps a rendition queue filled from the score library, streams
it as MP3 and WebRTC, and accepts one-shot render jobs over HTTP.
Configuration comes from VIRTUOSO_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides VIRTUOSO_PORT)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := setupLogger(opts.Verbose)

	cfg := config.Load()
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}

	if !recital.IsValidProfile(cfg.Profile) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown profile %q", cfg.Profile))
	}
	quality, err := render.ParseQuality(cfg.Preset)
	if err != nil {
		return WrapExitError(ExitCommandError, "preset", err)
	}

	library, err := recital.LoadLibrary(cfg.ScoreDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "score library", err)
	}

	history, err := server.OpenHistory(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitFailure, "history db", err)
	}
	defer history.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	pacer := stream.NewPacer(cfg.SegueDuration, logger)
	cast := stream.NewBroadcaster()
	sched := recital.NewScheduler(library, pacer, recital.Config{
		StartingProfile: cfg.Profile,
		Quality:         quality,
		BufferAhead:     cfg.BufferAhead,
		DwellMin:        cfg.DwellMin,
		DwellMax:        cfg.DwellMax,
	}, logger)

	srv := server.New(server.Options{
		Scheduler:   sched,
		Pacer:       pacer,
		Broadcaster: cast,
		History:     history,
		Logger:      logger,
	})

	go pacer.Run(ctx)
	go cast.Run(ctx, pacer.Frames())
	go sched.Run(ctx)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Routes(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("recital server listening",
		"addr", httpSrv.Addr,
		"scores", library.Size(),
		"profile", cfg.Profile,
		"preset", cfg.Preset)

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "http server", err)
	}
	return nil
}
