package theory

import (
	"fmt"
	"strings"
)

// Chord is a root pitch class plus interval offsets.
type Chord struct {
	Root      PitchClass
	Quality   string
	Intervals []int
}

var chordIntervals = map[string][]int{
	"maj":  {0, 4, 7},
	"min":  {0, 3, 7},
	"dim":  {0, 3, 6},
	"aug":  {0, 4, 8},
	"sus2": {0, 2, 7},
	"sus4": {0, 5, 7},
	"7":    {0, 4, 7, 10},
	"maj7": {0, 4, 7, 11},
	"min7": {0, 3, 7, 10},
	"dim7": {0, 3, 6, 9},
	"m7b5": {0, 3, 6, 10},
	"6":    {0, 4, 7, 9},
	"min6": {0, 3, 7, 9},
}

var qualityAliases = map[string]string{
	"":    "maj",
	"m":   "min",
	"-":   "min",
	"M7":  "maj7",
	"m7":  "min7",
	"mi7": "min7",
	"o":   "dim",
	"o7":  "dim7",
	"+":   "aug",
	"ø7":  "m7b5",
}

// NewChord builds a chord from a root and quality name.
func NewChord(root PitchClass, quality string) (Chord, error) {
	q := quality
	if alias, ok := qualityAliases[q]; ok {
		q = alias
	} else {
		q = strings.ToLower(q)
		if alias, ok := qualityAliases[q]; ok {
			q = alias
		}
	}
	intervals, ok := chordIntervals[q]
	if !ok {
		return Chord{}, fmt.Errorf("unknown chord quality %q", quality)
	}
	return Chord{Root: root, Quality: q, Intervals: intervals}, nil
}

// ParseChord reads symbols like "C", "Dm7", "F#maj7", "Bbdim".
func ParseChord(symbol string) (Chord, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return Chord{}, fmt.Errorf("empty chord symbol")
	}
	rootLen := 1
	if len(sym) > 1 && (sym[1] == '#' || sym[1] == 'b') {
		rootLen = 2
	}
	root, err := ParsePitchClass(sym[:rootLen])
	if err != nil {
		return Chord{}, fmt.Errorf("invalid chord root in %q: %w", symbol, err)
	}
	c, err := NewChord(root, sym[rootLen:])
	if err != nil {
		return Chord{}, fmt.Errorf("invalid chord symbol %q: %w", symbol, err)
	}
	return c, nil
}

func (c Chord) String() string {
	if c.Quality == "maj" {
		return c.Root.String()
	}
	return c.Root.String() + c.Quality
}

// PitchClasses enumerates the chord tones as pitch classes.
func (c Chord) PitchClasses() []PitchClass {
	res := make([]PitchClass, len(c.Intervals))
	for i, iv := range c.Intervals {
		res[i] = c.Root.Transpose(iv)
	}
	return res
}

// ContainsPitch reports whether the pitch's chroma is a chord tone.
func (c Chord) ContainsPitch(pitch uint8) bool {
	pc := PitchClass(pitch % 12)
	for _, member := range c.PitchClasses() {
		if member == pc {
			return true
		}
	}
	return false
}

// Voice places the chord's tones in concrete octaves starting at the
// given octave (C4 = 60, octave 4). Tones wrap upward so the voicing
// always ascends from the root.
func (c Chord) Voice(octave int) []uint8 {
	rootPitch := (octave+1)*12 + int(c.Root)
	res := make([]uint8, 0, len(c.Intervals))
	for _, iv := range c.Intervals {
		p := rootPitch + iv
		if p < 0 || p > 127 {
			continue
		}
		res = append(res, uint8(p))
	}
	return res
}

// Inversion rotates the voicing n times, moving the lowest note up an
// octave each step.
func Inversion(voicing []uint8, n int) []uint8 {
	res := append([]uint8(nil), voicing...)
	for i := 0; i < n; i++ {
		if len(res) == 0 {
			break
		}
		low := int(res[0]) + 12
		if low > 127 {
			break
		}
		res = append(res[1:], uint8(low))
	}
	return res
}

// InKey reports whether every chord tone lies in the scale.
func (c Chord) InKey(s Scale) bool {
	for _, pc := range c.PitchClasses() {
		in := false
		for _, member := range s.PitchClasses() {
			if member == pc {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	return true
}

// DiatonicTriad stacks scale thirds on the 1-based degree, yielding
// the triad the key implies there (e.g. ii is minor in major keys).
func DiatonicTriad(s Scale, degree int) (Chord, error) {
	n := len(s.Intervals)
	if degree < 1 || degree > n {
		return Chord{}, fmt.Errorf("scale %v has no degree %v", s.Name, degree)
	}
	root := s.Intervals[degree-1]
	third := s.Intervals[(degree+1)%n]
	fifth := s.Intervals[(degree+3)%n]
	ivThird := ((third - root) + 12) % 12
	ivFifth := ((fifth - root) + 12) % 12

	quality := "maj"
	switch {
	case ivThird == 3 && ivFifth == 6:
		quality = "dim"
	case ivThird == 3:
		quality = "min"
	case ivThird == 4 && ivFifth == 8:
		quality = "aug"
	}
	c, err := NewChord(s.Key.Transpose(root), quality)
	if err != nil {
		return Chord{}, err
	}
	// Keep the exact diatonic fifth even when it is neither perfect
	// nor diminished (pentatonic and blues scales).
	c.Intervals = []int{0, ivThird, ivFifth}
	return c, nil
}

// ProgressionStep is one harmonic segment: a chord held for a tick
// span. Rest is true for silent bars (degree 0 in a degree
// progression).
type ProgressionStep struct {
	Chord    Chord
	Duration uint32
	Rest     bool
}

// Progression is a composition's harmonic skeleton.
type Progression []ProgressionStep
