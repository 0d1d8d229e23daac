package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/guestbook/internal/profile"
	"github.com/hrygo/guestbook/internal/version"
	"github.com/hrygo/guestbook/server"
	"github.com/hrygo/guestbook/store"
	"github.com/hrygo/guestbook/store/db"
)

var (
	mode         string
	addr         string
	port         int
	data         string
	driver       string
	dsn          string
	pollInterval int
	enablePoller bool
	useCache     bool
	tlsCert      string
	tlsKey       string

	rootCmd = &cobra.Command{
		Use:   "guestbook",
		Short: "A minimal guestbook web application",
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := &profile.Profile{
				Mode:         mode,
				Addr:         addr,
				Port:         port,
				Data:         data,
				Driver:       driver,
				DSN:          dsn,
				PollInterval: pollInterval,
				EnablePoller: enablePoller,
				UseCache:     useCache,
				TLSCert:      tlsCert,
				TLSKey:       tlsKey,
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
			initLogger(instanceProfile)
			return run(instanceProfile)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&mode, "mode", "dev", `mode of the server, can be "prod", "dev" or "demo"`)
	flags.StringVar(&addr, "addr", "", "binding address for the server")
	flags.IntVar(&port, "port", 8080, "binding port for the server")
	flags.StringVar(&data, "data", "", "data directory")
	flags.StringVar(&driver, "driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	flags.StringVar(&dsn, "dsn", "", "database source name (file path for sqlite)")
	flags.IntVar(&pollInterval, "poll-interval", 10, "refresher poll interval in seconds")
	flags.BoolVar(&enablePoller, "enable-poller", true, "run the background cache refresher")
	flags.BoolVar(&useCache, "use-cache", true, "serve reads from the in-memory entry cache")
	flags.StringVar(&tlsCert, "tls-cert", "", "path to TLS certificate file")
	flags.StringVar(&tlsKey, "tls-key", "", "path to TLS key file")
}

func initLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func run(instanceProfile *profile.Profile) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("starting guestbook",
		slog.String("version", version.GetVersionWithMode(instanceProfile.Mode)),
		slog.String("driver", instanceProfile.Driver))

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return errors.Wrap(err, "failed to create db driver")
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	s, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-quit:
			slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
		case <-gctx.Done():
		}
		cancel()
		s.Shutdown(context.Background())
		return nil
	})

	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
