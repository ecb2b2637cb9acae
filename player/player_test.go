package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"

	"github.com/jsphweid/midigen/model"
)

type fakeDevice struct {
	mu       sync.Mutex
	messages []midi.Message
	failAt   int // fail the nth send when > 0
	sent     int
}

func (d *fakeDevice) send(msg midi.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent++
	if d.failAt > 0 && d.sent == d.failAt {
		return errors.New("port gone")
	}
	d.messages = append(d.messages, msg)
	return nil
}

// soundingCount replays the captured messages and reports how many
// notes are still on at the end.
func (d *fakeDevice) soundingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	sounding := make(map[[2]uint8]int)
	for _, msg := range d.messages {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			sounding[[2]uint8{ch, key}]++
		case msg.GetNoteOff(&ch, &key, &vel):
			if sounding[[2]uint8{ch, key}] > 0 {
				sounding[[2]uint8{ch, key}]--
			}
		}
	}
	var total int
	for _, n := range sounding {
		total += n
	}
	return total
}

func slowSequence() *model.Sequence {
	// 8 beats of held notes at 120 bpm: 4 seconds of playback.
	return &model.Sequence{
		Tempo:        120,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: 480,
		Tracks: []model.Track{
			{
				Name: "melody",
				Notes: []model.Note{
					{Pitch: 60, Start: 0, Duration: 4 * 480, Velocity: 90},
					{Pitch: 64, Start: 0, Duration: 4 * 480, Velocity: 90},
					{Pitch: 67, Start: 4 * 480, Duration: 4 * 480, Velocity: 90},
				},
			},
		},
	}
}

func TestPlayCompletes(t *testing.T) {
	device := &fakeDevice{}
	p := NewWithSender(device.send)

	seq := &model.Sequence{
		Tempo:        100000, // effectively instant playback
		TicksPerBeat: 480,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		Tracks: []model.Track{
			{Notes: []model.Note{
				{Pitch: 60, Start: 0, Duration: 10, Velocity: 90},
				{Pitch: 62, Start: 10, Duration: 10, Velocity: 90},
			}},
		},
	}
	err := p.Play(context.Background(), seq)
	assert.NoError(t, err)
	assert.Equal(t, 0, device.soundingCount())
}

func TestFirstEventWaitsForItsTick(t *testing.T) {
	device := &fakeDevice{}
	p := NewWithSender(device.send)

	// Two beats of silence before the only note: 200ms at 600 bpm.
	seq := &model.Sequence{
		Tempo:        600,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: 480,
		Tracks: []model.Track{
			{Notes: []model.Note{{Pitch: 60, Start: 960, Duration: 480, Velocity: 90}}},
		},
	}
	start := time.Now()
	err := p.Play(context.Background(), seq)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestCancelSilencesEverything(t *testing.T) {
	device := &fakeDevice{}
	p := NewWithSender(device.send)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := p.Play(ctx, slowSequence())
	assert.ErrorIs(t, err, model.ErrPlaybackCancelled)
	assert.Equal(t, 0, device.soundingCount())

	// No note-on may follow the cancellation path's silencing.
	var ch, key, vel uint8
	last := device.messages[len(device.messages)-1]
	assert.False(t, last.GetNoteOn(&ch, &key, &vel))
}

func TestCancelBeforeStart(t *testing.T) {
	device := &fakeDevice{}
	p := NewWithSender(device.send)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Play(ctx, slowSequence())
	assert.ErrorIs(t, err, model.ErrPlaybackCancelled)
	assert.Equal(t, 0, device.soundingCount())
}

func TestDeviceFailureStillSilences(t *testing.T) {
	device := &fakeDevice{failAt: 4}
	p := NewWithSender(device.send)

	err := p.Play(context.Background(), slowSequence())
	assert.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDeviceUnavailable)
	assert.Equal(t, 0, device.soundingCount())
}

func TestPlayRejectsTempolessSequence(t *testing.T) {
	p := NewWithSender(func(midi.Message) error { return nil })
	err := p.Play(context.Background(), &model.Sequence{TicksPerBeat: 480})
	assert.True(t, model.IsInvalidConfig(err))
}
