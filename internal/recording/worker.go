package recording

import (
	"errors"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// Worker is the single goroutine that owns the active audio.Session.
// It consumes one Command at a time and answers each with exactly one Response.
type Worker struct {
	host      audio.Host
	opts      audio.SessionOptions
	log       *logger.Logger
	commands  chan Command
	responses chan Response
	done      chan struct{}

	// session is only touched by the run goroutine
	session *audio.Session
}

func newWorker(host audio.Host, opts audio.SessionOptions, log *logger.Logger) *Worker {
	return &Worker{
		host:      host,
		opts:      opts,
		log:       log,
		commands:  make(chan Command, 1),
		responses: make(chan Response, 1),
		done:      make(chan struct{}),
	}
}

// run is the worker loop. The session is released on every exit path.
func (w *Worker) run() {
	defer close(w.done)
	defer close(w.responses)
	defer w.closeSession()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Audio worker panicked: %v", r)
		}
	}()

	w.log.Debug("Audio worker started (backend: %s)", w.host.Name())

	for cmd := range w.commands {
		resp := w.handle(cmd)
		w.responses <- resp

		if cmd.Kind == CloseThread {
			w.log.Debug("Audio worker exiting")
			return
		}
	}
}

func (w *Worker) handle(cmd Command) Response {
	switch cmd.Kind {
	case EnumerateRecordingDevices:
		return w.enumerate()
	case InitRecordingSession:
		return w.initSession(cmd.DeviceName)
	case GetRecorderState:
		return Response{Kind: StateReport, State: w.state()}
	case StartRecording:
		return w.start()
	case StopRecording:
		return w.stop()
	case CloseRecordingSession:
		w.closeSession()
		return Response{Kind: Success, Message: "recording session closed"}
	case CloseThread:
		w.closeSession()
		return Response{Kind: Success, Message: "audio thread closing"}
	default:
		return errorResponse(audioErrorf("unknown command: %d", cmd.Kind))
	}
}

func errorResponse(err error) Response {
	return Response{Kind: Error, Err: err}
}

func (w *Worker) state() State {
	switch {
	case w.session == nil:
		return Idle
	case w.session.IsRecording():
		return Recording
	default:
		return SessionOpen
	}
}

func (w *Worker) enumerate() Response {
	names, err := audio.Enumerate(w.host)
	if err != nil {
		w.log.Warn("Device enumeration incomplete (%d found): %v", len(names), err)
		return Response{Kind: Error, Devices: names, Err: newAudioError(err)}
	}
	return Response{Kind: DeviceList, Devices: names}
}

// initSession replaces any existing session with one bound to name
func (w *Worker) initSession(name string) Response {
	w.closeSession()

	device, err := audio.FindDevice(w.host, name)
	if err != nil {
		return errorResponse(newAudioError(err))
	}

	config, selection, err := audio.SelectConfig(device)
	if err != nil {
		return errorResponse(audioErrorf("device '%s' configuration error: %w", device.Name(), err))
	}

	w.log.Info("Selected %s config for '%s': %dHz, %d channels, %s",
		selection, device.Name(), config.SampleRate, config.Channels, config.Format)

	session, err := audio.OpenSession(w.host, device, config, w.opts, w.log)
	if err != nil {
		return errorResponse(newAudioError(err))
	}
	w.session = session

	return Response{
		Kind: SessionReady,
		Session: SessionInfo{
			DeviceName: device.Name(),
			SampleRate: config.SampleRate,
			Channels:   config.Channels,
			Format:     config.Format.String(),
			Selection:  selection.String(),
		},
	}
}

func (w *Worker) start() Response {
	if w.session == nil {
		return errorResponse(ErrNoActiveRecording)
	}

	if err := w.session.Start(); err != nil {
		return errorResponse(classify(err))
	}
	return Response{Kind: Success, Message: "recording started"}
}

func (w *Worker) stop() Response {
	if w.session == nil {
		return errorResponse(ErrNoActiveRecording)
	}

	rec, err := w.session.Stop()
	if err != nil {
		return errorResponse(classify(err))
	}
	return Response{Kind: AudioData, Recording: rec}
}

func (w *Worker) closeSession() {
	if w.session == nil {
		return
	}
	if err := w.session.Close(); err != nil {
		w.log.Warn("Error closing recording session: %v", err)
	}
	w.session = nil
}

// classify maps session errors onto the worker's error taxonomy
func classify(err error) error {
	if errors.Is(err, audio.ErrBufferLocked) {
		return ErrLockAcquisitionFailed
	}
	return newAudioError(err)
}
