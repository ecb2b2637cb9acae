package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
)

// Recorder captures live note events from an input port into a
// sequence, e.g. to pick up a take from a keyboard the way the
// transcription collaborator produces one from audio. A capture
// session ends after IdleTimeout with no incoming events.
type Recorder struct {
	ID          string
	Tempo       float64
	IdleTimeout time.Duration

	mu   sync.Mutex
	open map[[2]uint8]capturedOn
	seq  *model.Sequence
	stop func()
	done chan struct{}
}

type capturedOn struct {
	ms       int32
	velocity uint8
}

func NewRecorder(tempo float64, idle time.Duration) *Recorder {
	if tempo <= 0 {
		tempo = 120
	}
	if idle <= 0 {
		idle = 2 * time.Second
	}
	return &Recorder{
		ID:          uuid.New().String(),
		Tempo:       tempo,
		IdleTimeout: idle,
		open:        make(map[[2]uint8]capturedOn),
		seq: &model.Sequence{
			Tempo:        tempo,
			TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
			TicksPerBeat: constants.DefaultTicksPerBeat,
			Tracks:       []model.Track{{Name: "capture"}},
		},
		done: make(chan struct{}),
	}
}

// Start begins listening on the named input port (empty name takes the
// first one).
func (r *Recorder) Start(portName string) error {
	var in drivers.In
	var err error
	if portName == "" {
		in, err = midi.InPort(0)
	} else {
		in, err = midi.FindInPort(portName)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}

	idle := debounce.New(r.IdleTimeout)
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		r.handle(msg, timestampms)
		idle(r.finish)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}
	r.stop = stop
	idle(r.finish)
	return nil
}

func (r *Recorder) handle(msg midi.Message, timestampms int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		r.open[[2]uint8{ch, key}] = capturedOn{ms: timestampms, velocity: vel}
	case msg.GetNoteEnd(&ch, &key):
		k := [2]uint8{ch, key}
		on, ok := r.open[k]
		if !ok {
			return
		}
		delete(r.open, k)
		start := r.msToTicks(on.ms)
		duration := r.msToTicks(timestampms) - start
		if duration == 0 {
			duration = 1
		}
		r.seq.Tracks[0].AddNote(model.Note{
			Pitch:    key,
			Start:    start,
			Duration: duration,
			Velocity: on.velocity,
			Channel:  ch,
		})
	}
}

func (r *Recorder) msToTicks(ms int32) uint32 {
	if ms < 0 {
		ms = 0
	}
	beats := float64(ms) / 1000 * r.Tempo / 60
	return uint32(beats * float64(r.seq.TicksPerBeat))
}

func (r *Recorder) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.done:
		return
	default:
	}
	if r.stop != nil {
		r.stop()
	}
	close(r.done)
}

// Wait blocks until the idle timeout finalizes the capture or the
// context is cancelled; either way it returns whatever was captured so
// far, with notes in playback order.
func (r *Recorder) Wait(ctx context.Context) (*model.Sequence, error) {
	select {
	case <-ctx.Done():
		r.finish()
	case <-r.done:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq.Tracks[0].SortNotes()
	return r.seq, nil
}
