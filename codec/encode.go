// Package codec serializes sequences to standard MIDI file bytes and
// parses them back. Output is plain SMF format 1 so any off-the-shelf
// player or DAW can consume it.
package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/jsphweid/midigen/model"
)

const (
	metaTempo         = 0x51
	metaTimeSignature = 0x58
	metaKeySignature  = 0x59
	metaTrackName     = 0x03
	metaEndOfTrack    = 0x2F

	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusProgramChange = 0xC0

	// maxTempoUs is the largest microseconds-per-beat value the 3-byte
	// tempo meta event can carry.
	maxTempoUs = 0xFFFFFF
)

// appendVLQ writes n in the MIDI variable-length-quantity form: seven
// bits per byte, high bit set on all but the last.
func appendVLQ(buf []byte, n uint32) []byte {
	var tmp [4]byte
	i := 3
	tmp[i] = byte(n & 0x7F)
	n >>= 7
	for n > 0 {
		i--
		tmp[i] = byte(n&0x7F) | 0x80
		n >>= 7
	}
	return append(buf, tmp[i:]...)
}

type event struct {
	tick  uint32
	isOn  bool
	pitch uint8
	data  []byte
}

// Encode renders the sequence as a standard MIDI file: a header chunk,
// one meta track carrying tempo and time signature, and one track
// chunk per sequence track.
func Encode(seq *model.Sequence) ([]byte, error) {
	if seq.TicksPerBeat == 0 {
		return nil, &model.InvalidConfigError{Field: "ticks_per_beat", Reason: "must be positive"}
	}
	if seq.Tempo <= 0 {
		return nil, &model.InvalidConfigError{Field: "tempo", Reason: "must be positive"}
	}
	usPerBeat := uint32(math.Round(60_000_000 / seq.Tempo))
	if usPerBeat == 0 || usPerBeat > maxTempoUs {
		return nil, &model.InvalidConfigError{Field: "tempo", Reason: "not representable as a MIDI tempo"}
	}
	for ti := range seq.Tracks {
		for _, n := range seq.Tracks[ti].Notes {
			if n.Duration == 0 {
				return nil, &model.InvalidConfigError{Field: "duration", Reason: "notes must have positive duration"}
			}
		}
	}

	var out bytes.Buffer
	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, uint16(1)) // format 1
	binary.Write(&out, binary.BigEndian, uint16(len(seq.Tracks)+1))
	binary.Write(&out, binary.BigEndian, seq.TicksPerBeat)

	writeChunk(&out, encodeMetaTrack(seq, usPerBeat))
	for ti := range seq.Tracks {
		writeChunk(&out, encodeTrack(&seq.Tracks[ti]))
	}
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, body []byte) {
	out.WriteString("MTrk")
	binary.Write(out, binary.BigEndian, uint32(len(body)))
	out.Write(body)
}

func encodeMetaTrack(seq *model.Sequence, usPerBeat uint32) []byte {
	var body []byte

	body = append(body, 0, 0xFF, metaTempo, 3,
		byte(usPerBeat>>16), byte(usPerBeat>>8), byte(usPerBeat))

	num := seq.TimeSig.Numerator
	denomPow := byte(0)
	for d := seq.TimeSig.Denominator; d > 1; d >>= 1 {
		denomPow++
	}
	body = append(body, 0, 0xFF, metaTimeSignature, 4, num, denomPow, 24, 8)

	if ks := seq.KeySig; ks != nil {
		minor := byte(0)
		if ks.Minor {
			minor = 1
		}
		body = append(body, 0, 0xFF, metaKeySignature, 2, byte(ks.SharpsFlats), minor)
	}

	body = append(body, 0, 0xFF, metaEndOfTrack, 0)
	return body
}

func encodeTrack(t *model.Track) []byte {
	var body []byte

	if t.Name != "" {
		body = append(body, 0, 0xFF, metaTrackName, byte(len(t.Name)))
		body = append(body, t.Name...)
	}
	channel := t.Channel & 0x0F
	body = append(body, 0, statusProgramChange|channel, t.Program&0x7F)

	events := make([]event, 0, 2*len(t.Notes))
	for _, n := range t.Notes {
		ch := n.Channel & 0x0F
		events = append(events, event{
			tick:  n.Start,
			isOn:  true,
			pitch: n.Pitch,
			data:  []byte{statusNoteOn | ch, n.Pitch & 0x7F, n.Velocity & 0x7F},
		})
		events = append(events, event{
			tick:  n.End(),
			isOn:  false,
			pitch: n.Pitch,
			data:  []byte{statusNoteOff | ch, n.Pitch & 0x7F, 0},
		})
	}
	// Time order, note-offs ahead of note-ons on the same tick so
	// repeated pitches never collapse into zero-length notes. The sort
	// is stable to keep encoding deterministic.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		if events[i].isOn != events[j].isOn {
			return !events[i].isOn
		}
		return events[i].pitch < events[j].pitch
	})

	var lastTick uint32
	for _, e := range events {
		body = appendVLQ(body, e.tick-lastTick)
		body = append(body, e.data...)
		lastTick = e.tick
	}
	body = append(body, 0, 0xFF, metaEndOfTrack, 0)
	return body
}
