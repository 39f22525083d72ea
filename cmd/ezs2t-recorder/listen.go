package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzS2T-Recorder/internal/hotkey"
	"github.com/yok-tottii/EzS2T-Recorder/internal/notification"
	"github.com/yok-tottii/EzS2T-Recorder/internal/permissions"
	"github.com/yok-tottii/EzS2T-Recorder/internal/recording"
)

var listenNotify bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Record with the global hotkey, one WAV per press",
	Long: `Listen registers the configured global hotkey and records while it is held
(press-to-hold) or between two presses (toggle). Each take is written to the
recordings directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hkConfig, err := hotkey.FromSettings(cfg.Hotkey, cfg.RecordingMode)
		if err != nil {
			return err
		}
		for _, c := range hotkey.CheckConflicts(cfg.Hotkey) {
			log.Warn("Hotkey %s conflicts with %s (%s)", hotkey.FormatHotkey(cfg.Hotkey), c.Name, c.Description)
		}

		notifier := notification.NewNotificationManager("EzS2T Recorder", listenNotify)

		checkPermissions(permissions.Microphone, permissions.Accessibility)
		if !permissions.NewPermissionChecker().IsAuthorized(permissions.Microphone) {
			notifier.MicrophonePermissionDenied()
		}

		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		if _, err := manager.InitRecordingSession(cfg.DeviceName); err != nil {
			return err
		}

		hotkeyMgr := hotkey.New()
		if err := hotkeyMgr.Register(hkConfig); err != nil {
			return err
		}
		defer hotkeyMgr.Close()

		controller := recording.NewController(manager, recording.ControllerConfig{
			MaxDuration: time.Duration(cfg.MaxRecordTime) * time.Second,
		}, log)
		done := make(chan struct{})
		controller.Start(triggers(hotkeyMgr.Events(), done))

		saved := make(chan struct{})
		go func() {
			defer close(saved)
			for rec := range controller.Recordings() {
				path, err := outputPath(rec, "")
				if err == nil {
					err = rec.WriteWAV(path)
				}
				if err != nil {
					log.Error("Failed to save recording %s: %v", rec.ID, err)
					notifier.RecordingFailed(err.Error())
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %.2fs to %s\n", rec.DurationSeconds, path)
				if err := notifier.RecordingSaved(path, time.Duration(float64(rec.DurationSeconds)*float64(time.Second))); err != nil {
					log.Debug("Notification failed: %v", err)
				}
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (%s), Ctrl+C to quit\n",
			hotkey.FormatHotkey(cfg.Hotkey), hkConfig.Mode)
		notifier.ListeningStarted(hotkey.FormatHotkey(cfg.Hotkey))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		if err := controller.Stop(); err != nil {
			log.Warn("Failed to stop controller: %v", err)
		}
		close(done)
		<-saved
		return nil
	},
}

func init() {
	listenCmd.Flags().BoolVar(&listenNotify, "notify", false, "show a desktop notification for every saved take")
}

// triggers adapts hotkey events to recorder triggers until events closes or done is closed
func triggers(events <-chan hotkey.Event, done <-chan struct{}) <-chan recording.Trigger {
	out := make(chan recording.Trigger)
	go func() {
		defer close(out)
		for {
			var ev hotkey.Event
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				ev = e
			case <-done:
				return
			}

			t := recording.TriggerStop
			if ev.Type == hotkey.Pressed {
				t = recording.TriggerStart
			}
			select {
			case out <- t:
			case <-done:
				return
			}
		}
	}()
	return out
}
