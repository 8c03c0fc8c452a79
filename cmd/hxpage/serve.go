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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm/hxpage/internal/config"
	"github.com/pthm/hxpage/internal/demo"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve the counter demo",
		Long: `Serve the counter demo. Every action URL on the page is encrypted with
the configured key; requests for any other URL get a 404.`,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.String("host", config.DefaultHost, "host to listen on")
	flags.IntP("port", "p", config.DefaultPort, "port to listen on")
	flags.String("charset", config.DefaultCharset, "charset of Ajax responses")
	mustBind(flags, map[string]string{
		"server.host":    "host",
		"server.port":    "port",
		"server.charset": "charset",
	})
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, closeFn, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer builds the demo server. The returned close function releases
// the crypt factory.
func newServer(cfg *config.Config, logger *zap.Logger) (*http.Server, func() error, error) {
	factory, closeFn, err := cryptFactory(cfg.Crypt, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("crypt: %w", err)
	}

	app := demo.New(factory,
		demo.WithLogger(logger),
		demo.WithParameter(cfg.Crypt.Param),
		demo.WithCharset(cfg.Server.Charset),
	)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, closeFn, nil
}
