package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChord(t *testing.T) {
	cases := []struct {
		in      string
		root    PitchClass
		quality string
	}{
		{"C", 0, "maj"},
		{"Cm", 0, "min"},
		{"Dm7", 2, "min7"},
		{"F#maj7", 6, "maj7"},
		{"Bbdim", 10, "dim"},
		{"G7", 7, "7"},
		{"Asus4", 9, "sus4"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseChord(c.in)
			assert.NoError(t, err)
			assert.Equal(t, c.root, got.Root)
			assert.Equal(t, c.quality, got.Quality)
		})
	}
}

func TestParseChordRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "Hmaj", "Cwat"} {
		_, err := ParseChord(in)
		assert.Error(t, err, in)
	}
}

func TestVoice(t *testing.T) {
	c, err := ParseChord("C")
	assert.NoError(t, err)
	assert.Equal(t, []uint8{60, 64, 67}, c.Voice(4))

	m, err := ParseChord("Am")
	assert.NoError(t, err)
	assert.Equal(t, []uint8{57, 60, 64}, m.Voice(3))
}

func TestInversion(t *testing.T) {
	c, _ := ParseChord("C")
	voicing := c.Voice(4)

	assert := assert.New(t)
	assert.Equal([]uint8{64, 67, 72}, Inversion(voicing, 1))
	assert.Equal([]uint8{67, 72, 76}, Inversion(voicing, 2))
	// Original voicing is untouched.
	assert.Equal([]uint8{60, 64, 67}, voicing)
}

func TestContainsPitch(t *testing.T) {
	c, _ := ParseChord("Dm")
	assert := assert.New(t)
	assert.True(c.ContainsPitch(62))  // D
	assert.True(c.ContainsPitch(65))  // F
	assert.True(c.ContainsPitch(81))  // A, any octave
	assert.False(c.ContainsPitch(64)) // E
}

func TestDiatonicTriad(t *testing.T) {
	s, _ := NewScale("C", "major")
	cases := []struct {
		degree  int
		root    PitchClass
		quality string
	}{
		{1, 0, "maj"},  // C
		{2, 2, "min"},  // Dm
		{3, 4, "min"},  // Em
		{4, 5, "maj"},  // F
		{5, 7, "maj"},  // G
		{6, 9, "min"},  // Am
		{7, 11, "dim"}, // Bdim
	}
	for _, c := range cases {
		got, err := DiatonicTriad(s, c.degree)
		assert.NoError(t, err)
		assert.Equal(t, c.root, got.Root, "degree %v", c.degree)
		assert.Equal(t, c.quality, got.Quality, "degree %v", c.degree)
	}

	_, err := DiatonicTriad(s, 8)
	assert.Error(t, err)
}

func TestInKey(t *testing.T) {
	s, _ := NewScale("C", "major")
	assert := assert.New(t)

	dm, _ := ParseChord("Dm")
	assert.True(dm.InKey(s))

	db, _ := ParseChord("Db")
	assert.False(db.InKey(s))
}
