package model

import (
	"sort"

	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/util"
)

// Note is a single played note on a track. Times are in ticks of the
// owning Sequence's division.
type Note struct {
	Pitch    uint8
	Start    uint32
	Duration uint32
	Velocity uint8
	Channel  uint8
}

// End is the first tick at which the note is no longer sounding.
func (n Note) End() uint32 {
	return n.Start + n.Duration
}

// Track is an ordered set of notes bound to one program and channel.
type Track struct {
	Name    string
	Program uint8
	Channel uint8
	Notes   []Note
}

// AddNote appends a note. Ordering is restored lazily via SortNotes so
// generators can append freely.
func (t *Track) AddNote(n Note) {
	t.Notes = append(t.Notes, n)
}

// SortNotes orders notes by start tick. The sort is stable so notes
// sharing a start tick keep insertion order, which keeps generation
// and encoding deterministic.
func (t *Track) SortNotes() {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		return t.Notes[i].Start < t.Notes[j].Start
	})
}

// SoundingAt returns every note whose [start, start+duration) interval
// covers the given tick. Polyphony is allowed, so this can return any
// number of notes.
func (t *Track) SoundingAt(tick uint32) []Note {
	var res []Note
	for _, n := range t.Notes {
		if n.Start <= tick && tick < n.End() {
			res = append(res, n)
		}
	}
	return res
}

// EndTick is the tick at which the last note of the track ends.
func (t *Track) EndTick() uint32 {
	var end uint32
	for _, n := range t.Notes {
		if n.End() > end {
			end = n.End()
		}
	}
	return end
}

// TimeSignature is a meter like 4/4 or 3/4.
type TimeSignature struct {
	Numerator   uint8
	Denominator uint8
}

// KeySignature mirrors the MIDI file key signature event: a count of
// sharps (positive) or flats (negative) plus a minor-mode flag.
type KeySignature struct {
	SharpsFlats int8
	Minor       bool
}

// Sequence is the top-level composition aggregate. It exclusively owns
// its tracks and notes; nothing shares state across sequences. KeySig
// is nil when the source declared no key.
type Sequence struct {
	Tempo        float64
	TimeSig      TimeSignature
	KeySig       *KeySignature
	TicksPerBeat uint16
	Tracks       []Track
}

// TicksPerBar is the length of one bar in ticks.
func (s *Sequence) TicksPerBar() uint32 {
	return uint32(s.TimeSig.Numerator) * uint32(s.TicksPerBeat)
}

// TotalTicks is the tick at which the last note of any track ends.
func (s *Sequence) TotalTicks() uint32 {
	var end uint32
	for i := range s.Tracks {
		if t := s.Tracks[i].EndTick(); t > end {
			end = t
		}
	}
	return end
}

// Bars reports how many whole bars the sequence spans, rounding up.
func (s *Sequence) Bars() uint32 {
	per := s.TicksPerBar()
	if per == 0 {
		return 0
	}
	return (s.TotalTicks() + per - 1) / per
}

// NumNotes counts notes across all tracks.
func (s *Sequence) NumNotes() int {
	var total int
	for i := range s.Tracks {
		total += len(s.Tracks[i].Notes)
	}
	return total
}

// AverageVelocity is the rounded mean note velocity, or the default
// when the sequence has no notes.
func (s *Sequence) AverageVelocity() uint8 {
	var velocities []uint8
	for i := range s.Tracks {
		for _, n := range s.Tracks[i].Notes {
			velocities = append(velocities, n.Velocity)
		}
	}
	if len(velocities) == 0 {
		return constants.DefaultVelocity
	}
	count := uint64(len(velocities))
	return uint8((util.Sum(velocities) + count/2) / count)
}

// DurationSeconds converts total ticks to wall time at the sequence
// tempo.
func (s *Sequence) DurationSeconds() float64 {
	if s.Tempo <= 0 || s.TicksPerBeat == 0 {
		return 0
	}
	beats := float64(s.TotalTicks()) / float64(s.TicksPerBeat)
	return beats * 60.0 / s.Tempo
}
