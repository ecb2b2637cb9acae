package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/jsphweid/midigen/model"
)

// MaxTrackBytes rejects absurd track chunks before they are parsed.
// Overridable at startup via config.
var MaxTrackBytes uint32 = 1 << 20

type reader struct {
	data []byte
	pos  int
}

func (r *reader) fail(reason string) error {
	return &model.MalformedStreamError{Offset: r.pos, Reason: reason}
}

func (r *reader) u8() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.fail("unexpected end of stream")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, r.fail("unexpected end of stream")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// vlq reads a variable-length quantity. The MIDI spec caps these at
// four bytes; anything longer is malformed.
func (r *reader) vlq() (uint32, error) {
	var val uint32
	for i := 0; ; i++ {
		if i == 4 {
			return 0, r.fail("variable-length quantity exceeds 4 bytes")
		}
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		val = val<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return val, nil
		}
	}
}

type openNote struct {
	start    uint32
	velocity uint8
}

// Decode parses standard MIDI file bytes back into a sequence.
// Malformed input fails the whole parse; there is no partial-recovery
// mode. Tracks without notes (e.g. the tempo meta track) contribute
// their meta events and are otherwise dropped.
func Decode(data []byte) (*model.Sequence, error) {
	r := &reader{data: data}

	magic, err := r.bytes(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != "MThd" {
		return nil, &model.MalformedStreamError{Offset: 0, Reason: "missing MThd header"}
	}
	headerLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	if headerLen != 6 {
		return nil, r.fail("unexpected MThd length")
	}
	format, err := r.u16()
	if err != nil {
		return nil, err
	}
	if format > 1 {
		return nil, r.fail("unsupported SMF format")
	}
	numTracks, err := r.u16()
	if err != nil {
		return nil, err
	}
	division, err := r.u16()
	if err != nil {
		return nil, err
	}
	if division&0x8000 != 0 {
		return nil, r.fail("SMPTE division not supported")
	}
	if division == 0 {
		return nil, r.fail("zero division")
	}

	seq := &model.Sequence{
		Tempo:        120,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: division,
	}
	for i := 0; i < int(numTracks); i++ {
		track, err := decodeTrack(r, seq)
		if err != nil {
			return nil, err
		}
		if len(track.Notes) > 0 {
			track.SortNotes()
			seq.Tracks = append(seq.Tracks, track)
		}
	}
	return seq, nil
}

func decodeTrack(r *reader, seq *model.Sequence) (model.Track, error) {
	var track model.Track

	magic, err := r.bytes(4)
	if err != nil {
		return track, err
	}
	if string(magic) != "MTrk" {
		return track, &model.MalformedStreamError{Offset: r.pos - 4, Reason: "missing MTrk chunk"}
	}
	length, err := r.u32()
	if err != nil {
		return track, err
	}
	if length > MaxTrackBytes {
		return track, r.fail("track chunk exceeds maximum size")
	}
	trackEnd := r.pos + int(length)
	if trackEnd > len(r.data) {
		return track, r.fail("track chunk truncated")
	}

	open := make(map[[2]uint8][]openNote)
	var absTicks uint32
	var runningStatus byte
	sawChannel := false
	sawEOT := false

	for r.pos < trackEnd {
		delta, err := r.vlq()
		if err != nil {
			return track, err
		}
		absTicks += delta

		status, err := r.u8()
		if err != nil {
			return track, err
		}
		if status < 0x80 {
			// Running status: data byte of a repeated channel message.
			if runningStatus == 0 {
				return track, r.fail("data byte without running status")
			}
			status = runningStatus
			r.pos--
		}

		switch {
		case status == 0xFF:
			runningStatus = 0
			done, err := decodeMeta(r, seq, &track)
			if err != nil {
				return track, err
			}
			if done {
				sawEOT = true
				if r.pos != trackEnd {
					return track, r.fail("end-of-track before declared chunk length")
				}
			}
		case status == 0xF0 || status == 0xF7:
			n, err := r.vlq()
			if err != nil {
				return track, err
			}
			if _, err := r.bytes(int(n)); err != nil {
				return track, err
			}
			runningStatus = 0
		default:
			runningStatus = status
			if err := decodeChannelEvent(r, status, absTicks, open, &track); err != nil {
				return track, err
			}
			if !sawChannel {
				sawChannel = true
				track.Channel = status & 0x0F
			}
		}
		if sawEOT {
			break
		}
	}
	if !sawEOT {
		return track, r.fail("track missing end-of-track meta event")
	}
	for key, notes := range open {
		if len(notes) > 0 {
			return track, r.fail(fmtNoteErr("note-on without matching note-off", key))
		}
	}
	return track, nil
}

func decodeMeta(r *reader, seq *model.Sequence, track *model.Track) (bool, error) {
	typ, err := r.u8()
	if err != nil {
		return false, err
	}
	n, err := r.vlq()
	if err != nil {
		return false, err
	}
	data, err := r.bytes(int(n))
	if err != nil {
		return false, err
	}
	switch typ {
	case metaEndOfTrack:
		return true, nil
	case metaTempo:
		if len(data) != 3 {
			return false, r.fail("tempo meta event must carry 3 bytes")
		}
		usPerBeat := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
		if usPerBeat == 0 {
			return false, r.fail("zero tempo")
		}
		seq.Tempo = 60_000_000 / float64(usPerBeat)
	case metaTimeSignature:
		if len(data) < 2 {
			return false, r.fail("time signature meta event too short")
		}
		seq.TimeSig = model.TimeSignature{
			Numerator:   data[0],
			Denominator: 1 << data[1],
		}
	case metaKeySignature:
		if len(data) != 2 {
			return false, r.fail("key signature meta event must carry 2 bytes")
		}
		if seq.KeySig == nil {
			seq.KeySig = &model.KeySignature{
				SharpsFlats: int8(data[0]),
				Minor:       data[1] != 0,
			}
		}
	case metaTrackName:
		track.Name = string(data)
	}
	return false, nil
}

func decodeChannelEvent(r *reader, status byte, absTicks uint32, open map[[2]uint8][]openNote, track *model.Track) error {
	kind := status & 0xF0
	channel := status & 0x0F

	switch kind {
	case statusNoteOn, statusNoteOff:
		pitch, err := r.u8()
		if err != nil {
			return err
		}
		velocity, err := r.u8()
		if err != nil {
			return err
		}
		key := [2]uint8{channel, pitch}
		if kind == statusNoteOn && velocity > 0 {
			open[key] = append(open[key], openNote{start: absTicks, velocity: velocity})
			return nil
		}
		// Note-off, or the equivalent note-on with velocity zero.
		pending := open[key]
		if len(pending) == 0 {
			return r.fail(fmtNoteErr("note-off without matching note-on", key))
		}
		on := pending[0]
		open[key] = pending[1:]
		duration := absTicks - on.start
		if duration == 0 {
			duration = 1
		}
		track.AddNote(model.Note{
			Pitch:    pitch,
			Start:    on.start,
			Duration: duration,
			Velocity: on.velocity,
			Channel:  channel,
		})
	case statusProgramChange:
		program, err := r.u8()
		if err != nil {
			return err
		}
		track.Program = program
	case 0xD0: // channel pressure, one data byte
		if _, err := r.u8(); err != nil {
			return err
		}
	default: // polyphonic pressure, controller, pitch bend: two bytes
		if _, err := r.bytes(2); err != nil {
			return err
		}
	}
	return nil
}

func fmtNoteErr(msg string, key [2]uint8) string {
	return fmt.Sprintf("%v (channel %v, pitch %v)", msg, key[0], key[1])
}
