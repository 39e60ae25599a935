package cmd

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

	"github.com/saveblush/reraw-info/core/config"
	"github.com/saveblush/reraw-info/core/generic"
	"github.com/saveblush/reraw-info/core/metrics"
	"github.com/saveblush/reraw-info/core/utils/logger"
	"github.com/saveblush/reraw-info/pgk/nips/nip11"
	"github.com/saveblush/reraw-info/relay"
)

func newServeCmd(version string) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relay information document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config-path")
			addr, _ := cmd.Flags().GetString("addr")

			return serve(version, path, addr)
		},
	}

	serveCmd.Flags().String("addr", "", "http service address, defaults to :APP.PORT")

	return serveCmd
}

func serve(version, path, addr string) error {
	// Init logger
	logger.InitLogger("info")

	// Init configuration
	err := config.InitConfig(path)
	if err != nil {
		return fmt.Errorf("init configuration error: %w", err)
	}
	cf := config.Get()
	level := cf.App.LogLevel
	if generic.IsEmpty(level) {
		level = "info"
		if !cf.App.Environment.Production() {
			level = "debug"
		}
	}
	logger.InitLogger(level)

	// Init relay
	rl, err := relay.NewRelay(cf, nip11.NewService(version), metrics.New())
	if err != nil {
		return fmt.Errorf("init relay error: %w", err)
	}
	config.OnReload(func(cf *config.Configs) {
		_ = rl.Reload(cf)
	})

	// Start app
	if addr == "" {
		addr = fmt.Sprintf(":%d", cf.App.Port)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           rl.Serve(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.SetKeepAlivesEnabled(true)

	errChan := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	logger.Log.Infof("App start on: %s", addr)

	// Shutdown app
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errChan:
		return fmt.Errorf("app start error: %w", err)
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownRelease()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("app shutdown error: %w", err)
	}
	logger.Log.Info("Gracefully shutting down")

	return nil
}
