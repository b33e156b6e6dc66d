package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seo-dashboard/internal/config"
	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/monitoring"
	"github.com/sells-group/seo-dashboard/internal/report"
	"github.com/sells-group/seo-dashboard/internal/server"
	"github.com/sells-group/seo-dashboard/internal/session"
	"github.com/sells-group/seo-dashboard/internal/state"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SEO dashboard web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalysis(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}
		provider, err := buildIdentityProvider(cfg)
		if err != nil {
			return err
		}

		sessions := state.NewRegistry(time.Duration(cfg.Server.SessionTTLMins) * time.Minute)
		srv := server.New(env.Pipeline, session.NewGate(provider), sessions, renderer,
			server.WithBreakers(env.Breakers),
			server.WithRateLimit(cfg.Server.RatePerMinute, cfg.Server.RateBurst),
			server.WithCORSOrigins(cfg.Server.CORSOrigins),
			server.WithSecureCookies(cfg.Server.SecureCookies),
		)
		defer srv.Close()

		port := resolvePort(servePort, cfg.Server.Port)
		read := time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second
		write := time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return startServer(gctx, srv.Handler(), port, read, write)
		})
		g.Go(func() error {
			return sessions.Run(gctx, sweepInterval)
		})
		g.Go(func() error {
			return srv.SweepLimiter(gctx, sweepInterval)
		})
		if cfg.Monitoring.Enabled() {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store, env.Breakers),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			g.Go(func() error {
				return checker.Run(gctx)
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves h on port until ctx is done, then shuts down
// gracefully.
func startServer(ctx context.Context, h http.Handler, port int, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

// buildIdentityProvider returns the provider selected by identity.provider.
func buildIdentityProvider(c *config.Config) (session.Provider, error) {
	switch c.Identity.Provider {
	case "http":
		return session.NewHTTPProvider(c.Identity.URL, time.Duration(c.Identity.TimeoutSecs)*time.Second), nil
	case "static":
		return session.NewStaticProvider(model.Identity{
			ID:          c.Identity.ID,
			Email:       c.Identity.Email,
			DisplayName: c.Identity.DisplayName,
		}), nil
	default:
		return nil, eris.Errorf("unknown identity provider: %s", c.Identity.Provider)
	}
}
