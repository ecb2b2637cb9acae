package theory

import (
	"fmt"
	"strings"

	"github.com/jsphweid/midigen/model"
)

// PitchClass is a chroma independent of octave, 0-11 (C=0 .. B=11).
type PitchClass uint8

var pitchClassNames = map[string]PitchClass{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// ParsePitchClass reads note names like "C", "F#" or "Bb".
func ParsePitchClass(s string) (PitchClass, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return 0, fmt.Errorf("empty pitch class name")
	}
	base, ok := pitchClassNames[strings.ToUpper(name[:1])]
	if !ok {
		return 0, fmt.Errorf("unknown pitch class %q", s)
	}
	pc := int(base)
	for _, r := range name[1:] {
		switch r {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			return 0, fmt.Errorf("unknown pitch class %q", s)
		}
	}
	return PitchClass(((pc % 12) + 12) % 12), nil
}

func (p PitchClass) String() string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	return names[p%12]
}

// Transpose shifts the pitch class by n semitones, wrapping mod 12.
func (p PitchClass) Transpose(n int) PitchClass {
	v := (int(p) + n) % 12
	if v < 0 {
		v += 12
	}
	return PitchClass(v)
}

// CheckPitchClass validates a raw pitch class value.
func CheckPitchClass(v int) error {
	if v < 0 || v > 11 {
		return &model.InvalidPitchError{Value: v, Kind: "pitch class"}
	}
	return nil
}

// CheckPitch validates an absolute MIDI pitch.
func CheckPitch(v int) error {
	if v < 0 || v > 127 {
		return &model.InvalidPitchError{Value: v, Kind: "pitch"}
	}
	return nil
}

// Scale is a key plus the interval offsets of its member pitch
// classes.
type Scale struct {
	Key       PitchClass
	Name      string
	Intervals []int
}

var scaleIntervals = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"harmonic_minor":   {0, 2, 3, 5, 7, 8, 11},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"pentatonic_major": {0, 2, 4, 7, 9},
	"pentatonic_minor": {0, 3, 5, 7, 10},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// NewScale builds a scale from a key name ("C", "F#") and scale name
// ("major", "dorian", ...).
func NewScale(key string, name string) (Scale, error) {
	pc, err := ParsePitchClass(key)
	if err != nil {
		return Scale{}, err
	}
	canonical := strings.ToLower(strings.TrimSpace(name))
	intervals, ok := scaleIntervals[canonical]
	if !ok {
		return Scale{}, fmt.Errorf("unknown scale %q", name)
	}
	return Scale{Key: pc, Name: canonical, Intervals: intervals}, nil
}

// ScaleNames lists the supported scale names.
func ScaleNames() []string {
	names := make([]string, 0, len(scaleIntervals))
	for k := range scaleIntervals {
		names = append(names, k)
	}
	return names
}

// PitchClasses enumerates the scale's member pitch classes.
func (s Scale) PitchClasses() []PitchClass {
	res := make([]PitchClass, len(s.Intervals))
	for i, iv := range s.Intervals {
		res[i] = s.Key.Transpose(iv)
	}
	return res
}

// Contains reports whether the pitch's chroma is a scale member.
func (s Scale) Contains(pitch uint8) bool {
	pc := PitchClass(pitch % 12)
	for _, member := range s.PitchClasses() {
		if member == pc {
			return true
		}
	}
	return false
}

// Snap rounds a pitch to the nearest in-scale pitch. Ties resolve
// toward the lower pitch.
func (s Scale) Snap(pitch uint8) uint8 {
	if s.Contains(pitch) {
		return pitch
	}
	for delta := 1; delta <= 6; delta++ {
		if int(pitch)-delta >= 0 && s.Contains(uint8(int(pitch)-delta)) {
			return uint8(int(pitch) - delta)
		}
		if int(pitch)+delta <= 127 && s.Contains(uint8(int(pitch)+delta)) {
			return uint8(int(pitch) + delta)
		}
	}
	return pitch
}

// keySignatureNames maps a key signature's sharps/flats count to its
// major key name around the circle of fifths.
var keySignatureNames = map[int8]string{
	0: "C", 1: "G", 2: "D", 3: "A", 4: "E", 5: "B", 6: "F#", 7: "C#",
	-1: "F", -2: "Bb", -3: "Eb", -4: "Ab", -5: "Db", -6: "Gb", -7: "Cb",
}

// KeyFromSignature resolves a MIDI key signature to key and scale
// names. Minor signatures resolve to the relative minor of the major
// key sharing the same accidentals.
func KeyFromSignature(sharpsFlats int8, minor bool) (string, string, error) {
	name, ok := keySignatureNames[sharpsFlats]
	if !ok {
		return "", "", fmt.Errorf("key signature with %v accidentals out of range", sharpsFlats)
	}
	if !minor {
		return name, "major", nil
	}
	pc, err := ParsePitchClass(name)
	if err != nil {
		return "", "", err
	}
	return pc.Transpose(-3).String(), "minor", nil
}

// Degree returns the pitch class of the 1-based scale degree.
func (s Scale) Degree(degree int) (PitchClass, error) {
	if degree < 1 || degree > len(s.Intervals) {
		return 0, fmt.Errorf("scale %v has no degree %v", s.Name, degree)
	}
	return s.Key.Transpose(s.Intervals[degree-1]), nil
}
