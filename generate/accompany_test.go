package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/theory"
)

func uploadedSequence(bars int) *model.Sequence {
	seq := &model.Sequence{
		Tempo:        100,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: 480,
		Tracks:       []model.Track{{Name: "melody"}},
	}
	for bar := 0; bar < bars; bar++ {
		seq.Tracks[0].AddNote(model.Note{
			Pitch:    60,
			Start:    uint32(bar) * seq.TicksPerBar(),
			Duration: 480,
			Velocity: 80,
		})
	}
	return seq
}

func TestAccompanyAppendsChordTrack(t *testing.T) {
	seq := uploadedSequence(4)
	out, warnings, err := Accompany(seq, model.GenerationConfig{})
	assert.NoError(t, err)
	assert.Empty(t, warnings)

	assert := assert.New(t)
	assert.Equal(2, len(out.Tracks))
	assert.Equal(1, len(seq.Tracks)) // input is untouched
	assert.Equal(seq.Tempo, out.Tempo)

	chords := out.Tracks[len(out.Tracks)-1]
	assert.Equal("chords", chords.Name)
	assert.NotEmpty(chords.Notes)
	assert.LessOrEqual(chords.EndTick(), seq.Bars()*seq.TicksPerBar())
}

func TestAccompanyDefaultProgression(t *testing.T) {
	seq := uploadedSequence(4)
	out, _, err := Accompany(seq, model.GenerationConfig{})
	assert.NoError(t, err)

	chords := out.Tracks[len(out.Tracks)-1]
	// ii-V-I-vi in C: one bar each rooted on D, G, C, A.
	wantRoots := []uint8{2, 7, 0, 9}
	perBar := seq.TicksPerBar()
	for bar, want := range wantRoots {
		notes := chords.SoundingAt(uint32(bar) * perBar)
		assert.NotEmpty(t, notes, "bar %v", bar)
		assert.Equal(t, want, notes[0].Pitch%12, "bar %v root", bar)
	}
}

func TestAccompanyUsesKeySignature(t *testing.T) {
	seq := uploadedSequence(2)
	seq.KeySig = &model.KeySignature{SharpsFlats: 2} // D major
	out, _, err := Accompany(seq, model.GenerationConfig{Progression: []string{"1"}})
	assert.NoError(t, err)

	scale, err := theory.NewScale("D", "major")
	assert.NoError(t, err)
	chords := out.Tracks[len(out.Tracks)-1]
	assert.NotEmpty(t, chords.Notes)
	for _, n := range chords.Notes {
		assert.True(t, scale.Contains(n.Pitch), "pitch %v", n.Pitch)
	}
	assert.Equal(t, uint8(2), chords.SoundingAt(0)[0].Pitch%12) // D root
}

func TestAccompanyVelocityFollowsInput(t *testing.T) {
	seq := uploadedSequence(2) // every input note at velocity 80
	out, _, err := Accompany(seq, model.GenerationConfig{})
	assert.NoError(t, err)

	want := uint8(float64(seq.AverageVelocity()) * 0.8)
	chords := out.Tracks[len(out.Tracks)-1]
	for _, n := range chords.Notes {
		assert.Equal(t, want, n.Velocity)
	}
}

func TestAccompanyRejectsEmptySequence(t *testing.T) {
	seq := &model.Sequence{
		Tempo:        120,
		TimeSig:      model.TimeSignature{Numerator: 4, Denominator: 4},
		TicksPerBeat: 480,
	}
	_, _, err := Accompany(seq, model.GenerationConfig{})
	assert.Error(t, err)
	assert.True(t, model.IsInvalidConfig(err))
}
