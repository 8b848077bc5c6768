package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-board-client/internal/observability"
	"github.com/jonathan/job-board-client/internal/session"
)

var watchPath string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Act as an open tab and print session events from the other tabs",
	Long: `Keep a session open on the profile, as a browser tab would, and print every
login and logout broadcast by other tabs together with the resulting navigation.
Events cross process boundaries only when REDIS_URL is set.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchPath, "path", "/resumes", "Path the tab is showing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	return withApp(ctx, func(a *app) error {
		nav := session.NewPathNavigator(watchPath)
		nav.OnNavigate = func(path string) {
			fmt.Fprintf(out, "navigated to %s\n", path)
		}
		s, err := a.session(ctx, nav)
		if err != nil {
			return err
		}
		printer.PrintUser(s.CurrentUser())

		port, err := a.transport.Open(ctx, session.ProfileChannel(a.cfg.BroadcastChannel, a.cfg.StorageProfile))
		if err != nil {
			return fmt.Errorf("failed to open session channel: %w", err)
		}
		defer port.Close()
		cancel := port.Listen(printer.PrintEvent)
		defer cancel()

		a.logger.WithField("path", watchPath).Info("watching session events, press Ctrl+C to stop")
		<-ctx.Done()
		return nil
	})
}
