package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-board-client/internal/revalidate"
	"github.com/jonathan/job-board-client/internal/server"
	"github.com/jonathan/job-board-client/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser-facing HTTP server",
	Long: `Start an HTTP server that guards pages, keeps one session per browser profile,
serves cached searches and streams cross-tab session events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		addr := a.cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		registry := session.NewRegistry(a.builder(nil).Build, a.logger)
		defer registry.Close()

		srv, err := server.New(server.Config{
			Addr:         addr,
			API:          a.api,
			Auth:         a.auth,
			Sessions:     registry,
			Transport:    a.transport,
			Channel:      a.cfg.BroadcastChannel,
			Decoder:      a.decoder,
			PageSize:     a.cfg.PageSize,
			CookieMaxAge: time.Duration(a.cfg.TokenCookieMaxAge),
			Logger:       a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		scheduler := revalidate.New(registry, a.cfg.RevalidateSpec, a.logger)
		scheduler.SetIdleTTL(time.Duration(a.cfg.SessionIdleTTL))
		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})
		return g.Wait()
	})
}

// contextOrBackground returns the command's context, which is nil when a
// command runs outside Execute (as in tests).
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
