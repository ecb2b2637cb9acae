package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortNotesIsStable(t *testing.T) {
	var track Track
	track.AddNote(Note{Pitch: 64, Start: 100, Duration: 10})
	track.AddNote(Note{Pitch: 60, Start: 0, Duration: 10})
	track.AddNote(Note{Pitch: 67, Start: 100, Duration: 10})
	track.SortNotes()

	assert := assert.New(t)
	assert.Equal(uint8(60), track.Notes[0].Pitch)
	// Same start tick: insertion order is preserved.
	assert.Equal(uint8(64), track.Notes[1].Pitch)
	assert.Equal(uint8(67), track.Notes[2].Pitch)
}

func TestSoundingAt(t *testing.T) {
	var track Track
	track.AddNote(Note{Pitch: 60, Start: 0, Duration: 100})
	track.AddNote(Note{Pitch: 64, Start: 50, Duration: 100})

	assert := assert.New(t)
	assert.Len(track.SoundingAt(0), 1)
	assert.Len(track.SoundingAt(75), 2) // polyphony
	assert.Len(track.SoundingAt(99), 2)
	assert.Len(track.SoundingAt(100), 1) // end tick is exclusive
	assert.Len(track.SoundingAt(150), 0)
}

func TestSequenceTotals(t *testing.T) {
	seq := Sequence{
		Tempo:        120,
		TimeSig:      TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: 480,
		Tracks: []Track{
			{Notes: []Note{{Pitch: 60, Start: 0, Duration: 1920}}},
			{Notes: []Note{{Pitch: 48, Start: 1920, Duration: 1000}}},
		},
	}

	assert := assert.New(t)
	assert.Equal(uint32(1920), seq.TicksPerBar())
	assert.Equal(uint32(2920), seq.TotalTicks())
	assert.Equal(uint32(2), seq.Bars()) // partial second bar rounds up
	assert.Equal(2, seq.NumNotes())
	// 2920 ticks at 480 tpb is ~6.08 beats; at 120 bpm that is ~3.04s.
	assert.InDelta(3.042, seq.DurationSeconds(), 0.01)
}
