package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/audio/miniaudio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/audio/portaudio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/config"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
	"github.com/yok-tottii/EzS2T-Recorder/internal/permissions"
	"github.com/yok-tottii/EzS2T-Recorder/internal/recording"
)

var (
	cfgFile string
	verbose bool
	backend string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ezs2t-recorder",
	Short: "Microphone capture service with a command/response recorder",
	Long: `ezs2t-recorder captures microphone audio through a dedicated audio worker.

Devices are addressed by name ("default" picks the system input). Recordings are
returned as 32-bit float samples and can be written as 16-bit WAV files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backend != "" {
			if err := cfg.Update(map[string]interface{}{"backend": backend}); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", cfgFile, err)
		}

		log, err = newLogger(cfg, verbose)
		if err != nil {
			return err
		}

		log.Info("ezs2t-recorder v%s (%s), config %s", version, cmd.Name(), cfgFile)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log != nil {
			return log.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging mirrored to stderr")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "audio backend: portaudio or miniaudio (overrides config)")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listenCmd)
}

func newLogger(c *config.Config, verbose bool) (*logger.Logger, error) {
	lc := logger.DefaultConfig()

	dir, err := c.GetLogDir()
	if err != nil {
		return nil, err
	}
	if dir != "" {
		lc.LogDir = dir
	}
	lc.RetentionDays = c.LogRetentionDays

	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Level = level

	if verbose {
		lc.Level = logger.DEBUG
		lc.Stderr = true
	}

	l, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// newHost opens the configured audio backend
func newHost(name string) (audio.Host, error) {
	switch name {
	case config.BackendMiniaudio:
		host, err := miniaudio.NewHost(log)
		if err != nil {
			return nil, err
		}
		return host, nil
	case config.BackendPortAudio, "":
		host, err := portaudio.NewHost(portaudio.DefaultOptions(), log)
		if err != nil {
			return nil, err
		}
		return host, nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", name)
	}
}

// newManager opens the backend and wraps it in a recorder manager.
// The returned cleanup stops the worker before releasing the backend.
func newManager() (*recording.Manager, func(), error) {
	host, err := newHost(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Audio backend: %s", host.Name())

	opts := audio.DefaultSessionOptions()
	opts.LockTimeout = time.Duration(cfg.LockTimeoutMS) * time.Millisecond

	manager := recording.NewManager(host, opts, log)
	cleanup := func() {
		if err := manager.CloseThread(); err != nil {
			log.Warn("Failed to close audio thread: %v", err)
		}
		manager.Close()
		if err := host.Close(); err != nil {
			log.Warn("Failed to close audio backend: %v", err)
		}
	}

	return manager, cleanup, nil
}

// checkPermissions warns about missing privacy permissions.
// An unauthorized macOS microphone still opens but delivers silence.
func checkPermissions(kinds ...permissions.Kind) {
	msg := permissions.NewPermissionChecker().MissingMessage(kinds...)
	if msg == "" {
		return
	}

	log.Warn("Missing permissions: %v", kinds)
	fmt.Fprint(os.Stderr, msg)
}
