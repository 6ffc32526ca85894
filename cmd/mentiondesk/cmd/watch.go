package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/metrics"
	"github.com/mentiondesk/mentiondesk/internal/app"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
	"github.com/mentiondesk/mentiondesk/internal/service"
)

var (
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print new unread mentions as they arrive",
	Long: `Poll a project for unread mentions and print each one once.

The session is re-verified every session.recheck_interval; the command exits
when the session ends. Polls within the server's freshness window are answered
from the cache.

Examples:
  mentiondesk watch -p 42 --interval 30s --metrics-addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&trackingProject, "project", "p", "", "project id")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Minute, "poll interval")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	watchCmd.Flags().StringVar(&mentionFilter, "filter", "", "only print mentions matching this expression")
	_ = watchCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	// stop() restores default signal handling so a second Ctrl+C exits at once.
	ctx, stop := signal.NotifyContext(cmd.Context(), gracefulSignals()...)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	if err := requireSession(a); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	a.Lifecycle.OnChange(func(_, to session.State) {
		if to != session.StateAuthenticated {
			cancel(session.ErrSessionExpired)
		}
	})

	addr := watchMetricsAddr
	if addr == "" {
		addr = a.Config.Metrics.Addr
	}
	if addr != "" {
		srv := serveMetrics(a, addr)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a.Lifecycle.StartRecheck(ctx)
	a.Logger.Info("watching mentions", "project_id", trackingProject, "interval", watchInterval)

	err = watchLoop(ctx, cmd, a)
	if cause := context.Cause(ctx); errors.Is(cause, session.ErrSessionExpired) {
		return cause
	}
	return err
}

func serveMetrics(a *app.App, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.Registry))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.Logger.Info("serving metrics", "addr", addr)
	return srv
}

// watchLoop polls until ctx ends. Transient request failures are logged and
// retried on the next tick.
func watchLoop(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	seen := make(map[string]struct{})
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		if err := pollOnce(ctx, cmd, a, seen); err != nil {
			if errors.Is(err, session.ErrSessionExpired) || errors.Is(err, service.ErrInvalidInput) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			a.Logger.Warn("poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func pollOnce(ctx context.Context, cmd *cobra.Command, a *app.App, seen map[string]struct{}) error {
	page, err := a.Mentions.List(ctx, trackingProject, service.MentionQuery{Status: "unread"})
	if err != nil {
		return err
	}
	items := page.Items
	if mentionFilter != "" {
		if items, err = a.Mentions.Filter(ctx, items, mentionFilter); err != nil {
			return err
		}
	}

	var fresh []service.Mention
	for _, m := range items {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	a.Logger.Debug("polled mentions", "total", len(items), "new", len(fresh), "cached", page.Cached)
	if len(fresh) == 0 {
		return nil
	}
	return printMentions(cmd, fresh, fresh)
}
