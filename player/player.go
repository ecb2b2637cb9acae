// Package player drives a live MIDI output port from a sequence and
// captures live input back into one.
package player

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/jsphweid/midigen/model"
)

// ccAllNotesOff is the channel-mode controller that silences a whole
// channel (CC 123).
const ccAllNotesOff = 123

// Sender pushes one message to a device.
type Sender func(msg midi.Message) error

// Player holds exclusive access to one output port for the duration of
// a playback.
type Player struct {
	out  drivers.Out
	send Sender
}

// Open acquires an output port by name; an empty name takes the first
// available port.
func Open(portName string) (*Player, error) {
	var out drivers.Out
	var err error
	if portName == "" {
		out, err = midi.OutPort(0)
	} else {
		out, err = midi.FindOutPort(portName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}
	return &Player{out: out, send: Sender(send)}, nil
}

// NewWithSender builds a player around a raw sender. Used by tests and
// by callers that already own a port.
func NewWithSender(send Sender) *Player {
	return &Player{send: send}
}

// Close releases the port.
func (p *Player) Close() error {
	if p.out != nil {
		return p.out.Close()
	}
	return nil
}

type scheduledEvent struct {
	tick  uint32
	isOn  bool
	pitch uint8
	msg   midi.Message
}

// Play streams the sequence to the port in real time. Cancelling the
// context stops playback before the next note-on and silences every
// sounding note; the clean-stop result is ErrPlaybackCancelled. A
// device failure mid-play also attempts to silence everything before
// the error surfaces.
func (p *Player) Play(ctx context.Context, seq *model.Sequence) error {
	if seq.Tempo <= 0 || seq.TicksPerBeat == 0 {
		return &model.InvalidConfigError{Field: "tempo", Reason: "sequence has no tempo"}
	}

	for i := range seq.Tracks {
		t := &seq.Tracks[i]
		if err := p.send(midi.ProgramChange(t.Channel&0x0F, t.Program&0x7F)); err != nil {
			return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
		}
	}

	events := flatten(seq)
	tickDur := time.Duration(60 * float64(time.Second) / (seq.Tempo * float64(seq.TicksPerBeat)))

	sounding := make(map[[2]uint8]int)
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	// Drain the initial fire so the first Reset schedules cleanly.
	<-timer.C

	for _, e := range events {
		due := start.Add(time.Duration(e.tick) * tickDur)
		timer.Reset(time.Until(due))
		select {
		case <-ctx.Done():
			p.allNotesOff(sounding)
			return model.ErrPlaybackCancelled
		case <-timer.C:
		}
		if err := p.send(e.msg); err != nil {
			p.allNotesOff(sounding)
			return fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
		}
		var ch, key, vel uint8
		switch {
		case e.msg.GetNoteOn(&ch, &key, &vel):
			sounding[[2]uint8{ch, key}]++
		case e.msg.GetNoteOff(&ch, &key, &vel):
			k := [2]uint8{ch, key}
			if sounding[k] > 0 {
				sounding[k]--
			}
		}
	}
	return nil
}

// allNotesOff silences anything still sounding: explicit note-offs for
// tracked notes plus CC 123 on every touched channel. Send errors here
// are ignored since this already runs on a failure or cancel path.
func (p *Player) allNotesOff(sounding map[[2]uint8]int) {
	channels := make(map[uint8]bool)
	for k, count := range sounding {
		if count > 0 {
			p.send(midi.NoteOff(k[0], k[1]))
		}
		channels[k[0]] = true
	}
	for ch := range channels {
		p.send(midi.ControlChange(ch, ccAllNotesOff, 0))
	}
}

func flatten(seq *model.Sequence) []scheduledEvent {
	var events []scheduledEvent
	for i := range seq.Tracks {
		for _, n := range seq.Tracks[i].Notes {
			ch := n.Channel & 0x0F
			events = append(events, scheduledEvent{
				tick:  n.Start,
				isOn:  true,
				pitch: n.Pitch,
				msg:   midi.NoteOn(ch, n.Pitch&0x7F, n.Velocity&0x7F),
			})
			events = append(events, scheduledEvent{
				tick:  n.End(),
				pitch: n.Pitch,
				msg:   midi.NoteOff(ch, n.Pitch&0x7F),
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		if events[i].isOn != events[j].isOn {
			return !events[i].isOn
		}
		return events[i].pitch < events[j].pitch
	})
	return events
}

// Ports lists the available in and out ports.
func Ports() model.PortsResponse {
	var res model.PortsResponse
	for _, in := range midi.GetInPorts() {
		res.In = append(res.In, model.PortInfo{Number: in.Number(), Name: in.String()})
	}
	for _, out := range midi.GetOutPorts() {
		res.Out = append(res.Out, model.PortInfo{Number: out.Number(), Name: out.String()})
	}
	return res
}
