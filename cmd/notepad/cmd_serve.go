package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"notepad/pkg/handlers"
	"notepad/pkg/notify"
	"notepad/pkg/reminder"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, file watcher and reminder scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenAddr = listen
	}

	triggers, err := reminder.OpenBadgerStore(cfg.ReminderDBPath)
	if err != nil {
		return err
	}

	hub := notify.NewHub()
	a := newApp(cfg, triggers, reminder.MultiNotifier{reminder.LogNotifier{}, hub})
	defer a.Close()
	defer hub.Close()

	if armed, err := a.scheduler.Rearm(); err != nil {
		log.Warnf("Could not restore reminders: %v", err)
	} else {
		log.Infof("Restored %d reminders", armed)
	}
	a.notes.Load()

	server := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handlers.NewRouter(handlers.Deps{
			Notes:    a.notes,
			Auth:     a.auth,
			Sessions: a.sessions,
			Settings: a.settings,
			Hub:      hub,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Server starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Infof("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.store.Watch(ctx, a.notes.Reload)
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := a.sessions.Cleanup(); n > 0 {
					log.Debugf("Expired %d sessions", n)
				}
			}
		}
	})

	return g.Wait()
}
