package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzS2T-Recorder/internal/api"
	"github.com/yok-tottii/EzS2T-Recorder/internal/permissions"
	"github.com/yok-tottii/EzS2T-Recorder/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recorder over a localhost HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checkPermissions(permissions.Microphone)

		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		serverConfig := server.DefaultConfig()
		serverConfig.Port = cfg.ServerPort
		if servePort > 0 {
			serverConfig.Port = servePort
		}

		httpServer := server.New(serverConfig, log)
		api.New(manager, cfg, cfgFile, log).RegisterRoutes(httpServer.GetMux())

		if err := httpServer.Start(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorder API listening on %s\n", httpServer.URL())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("Shutting down")
		return httpServer.Stop()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server_port)")
}
