package recording

import (
	"fmt"
	"sync"
	"time"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// Trigger is a push-to-talk edge from a control surface such as a hotkey
type Trigger int

const (
	// TriggerStart begins a recording cycle
	TriggerStart Trigger = iota
	// TriggerStop ends the current cycle
	TriggerStop
)

// ControllerConfig holds configuration for the push-to-talk controller
type ControllerConfig struct {
	MaxDuration time.Duration
}

// DefaultControllerConfig returns the default configuration
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxDuration: 60 * time.Second,
	}
}

// Controller turns start/stop triggers into Manager calls and publishes every
// finished recording. A cycle that runs past MaxDuration is stopped automatically.
type Controller struct {
	manager     *Manager
	log         *logger.Logger
	maxDuration time.Duration
	recordings  chan *audio.AudioRecording
	stopTimer   *time.Timer
	active      bool
	mu          sync.Mutex
	stopChan    chan struct{}
	stopOnce    sync.Once
	stopErr     error
	wg          sync.WaitGroup
}

// NewController creates a controller. The manager must already hold a session.
func NewController(manager *Manager, config ControllerConfig, log *logger.Logger) *Controller {
	if config.MaxDuration <= 0 {
		config.MaxDuration = DefaultControllerConfig().MaxDuration
	}

	return &Controller{
		manager:     manager,
		log:         log,
		maxDuration: config.MaxDuration,
		recordings:  make(chan *audio.AudioRecording, 4),
		stopChan:    make(chan struct{}),
	}
}

// Start begins consuming triggers
func (c *Controller) Start(triggers <-chan Trigger) {
	c.wg.Add(1)
	go c.handleTriggers(triggers)
}

func (c *Controller) handleTriggers(triggers <-chan Trigger) {
	defer c.wg.Done()

	for {
		select {
		case trigger, ok := <-triggers:
			if !ok {
				return
			}

			switch trigger {
			case TriggerStart:
				if err := c.startRecording(); err != nil {
					c.log.Warn("Failed to start recording: %v", err)
				}
			case TriggerStop:
				if err := c.stopRecording(); err != nil {
					c.log.Warn("Failed to stop recording: %v", err)
				}
			}

		case <-c.stopChan:
			return
		}
	}
}

func (c *Controller) startRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return fmt.Errorf("already recording")
	}

	if err := c.manager.StartRecording(); err != nil {
		return err
	}
	c.active = true

	c.stopTimer = time.AfterFunc(c.maxDuration, func() {
		c.log.Info("Max record time (%v) reached, stopping", c.maxDuration)
		if err := c.stopRecording(); err != nil {
			c.log.Warn("Auto-stop recording failed: %v", err)
		}
	})

	return nil
}

func (c *Controller) stopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return fmt.Errorf("not recording")
	}

	if c.stopTimer != nil {
		c.stopTimer.Stop()
		c.stopTimer = nil
	}
	c.active = false

	rec, err := c.manager.StopRecording()
	if err != nil {
		return err
	}

	select {
	case c.recordings <- rec:
	default:
		c.log.Warn("Recording channel full, dropping %.2fs recording", rec.DurationSeconds)
	}

	return nil
}

// Recordings returns the channel of finished recordings
func (c *Controller) Recordings() <-chan *audio.AudioRecording {
	return c.recordings
}

// IsActive reports whether a cycle is in progress
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Stop ends trigger handling, cancels an in-progress cycle without publishing
// it, and closes the recordings channel. Later calls return the first result.
func (c *Controller) Stop() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.active {
			if c.stopTimer != nil {
				c.stopTimer.Stop()
				c.stopTimer = nil
			}
			c.active = false
			c.stopErr = c.manager.CancelRecording()
		}

		close(c.recordings)
	})
	return c.stopErr
}
