package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzS2T-Recorder/internal/api"
	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/permissions"
)

var (
	recordDevice   string
	recordDuration time.Duration
	recordOut      string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from a device and write a WAV file",
	Long: `Record opens a session on the device, captures until the duration elapses
or Ctrl+C is pressed, and writes the result as a 16-bit WAV file.

Without --out the file goes to the configured recordings directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		device := recordDevice
		if device == "" {
			device = cfg.DeviceName
		}

		limit := time.Duration(cfg.MaxRecordTime) * time.Second
		duration := recordDuration
		if duration <= 0 || duration > limit {
			duration = limit
		}

		checkPermissions(permissions.Microphone)

		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		info, err := manager.InitRecordingSession(device)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recording from %s (%d Hz, %d ch, %s) for up to %v, Ctrl+C to stop\n",
			info.DeviceName, info.SampleRate, info.Channels, info.Format, duration)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, duration)
		defer cancel()

		if err := manager.StartRecording(); err != nil {
			return err
		}
		<-ctx.Done()

		rec, err := manager.StopRecording()
		if err != nil {
			return err
		}

		path, err := outputPath(rec, recordOut)
		if err != nil {
			return err
		}
		if err := rec.WriteWAV(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %.2fs (%d samples) to %s\n", rec.DurationSeconds, len(rec.AudioData), path)
		return nil
	},
}

// outputPath resolves where a recording is written, defaulting to the recordings directory
func outputPath(rec *audio.AudioRecording, out string) (string, error) {
	if out != "" {
		return out, nil
	}

	dir, err := cfg.GetRecordingsDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}

	return filepath.Join(dir, api.RecordingFileName(rec, time.Now())), nil
}

func init() {
	recordCmd.Flags().StringVarP(&recordDevice, "device", "d", "", "device name (overrides config, \"default\" for the system input)")
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "t", 0, "recording length (capped at max_record_time)")
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "output WAV path")
}
