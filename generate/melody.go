package generate

import (
	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/theory"
	"github.com/jsphweid/midigen/util"
)

const (
	melodyLow  = 55 // G3
	melodyHigh = 84 // C6

	// leapChance is the probability of a deliberate leap instead of
	// the usual stepwise motion.
	leapChance = 0.08

	// chordToneChance is the preference for chord tones on strong
	// beats.
	chordToneChance = 0.8
)

// melodyTrack fills each harmonic segment with notes drawn from the
// active chord and scale.
func melodyTrack(p params, prog theory.Progression) model.Track {
	track := model.Track{
		Name:    "melody",
		Program: p.program,
		Channel: melodyChannel,
	}

	tpb := uint32(constants.DefaultTicksPerBeat)
	prev := int(p.scale.Snap(72)) // start near C5, snapped into key

	var cursor uint32
	for _, step := range prog {
		segEnd := cursor + step.Duration
		if step.Rest {
			cursor = segEnd
			continue
		}
		for cursor < segEnd {
			dur := util.Min(pickDuration(p, tpb), segEnd-cursor)

			// Sparser configs leave space between phrases.
			if p.rng.Float64() < (1-p.density)*0.3 {
				cursor += dur
				continue
			}

			strong := cursor%(2*tpb) == 0
			pitch := pickPitch(p, step.Chord, prev, strong)
			velocity := p.velocity
			if strong {
				velocity = util.Clamp(velocity+10, 1, constants.MaxVelocity)
			}
			track.AddNote(model.Note{
				Pitch:    uint8(pitch),
				Start:    cursor,
				Duration: dur,
				Velocity: velocity,
				Channel:  melodyChannel,
			})
			prev = pitch
			cursor += dur
		}
	}
	return track
}

// pickDuration draws from whole/half/quarter/eighth values, with
// density shifting weight toward shorter notes.
func pickDuration(p params, tpb uint32) uint32 {
	type choice struct {
		ticks  uint32
		weight float64
	}
	choices := []choice{
		{4 * tpb, (1 - p.density) * 1.5},
		{2 * tpb, (1 - p.density) + 0.5},
		{tpb, 0.5 + p.density},
		{tpb / 2, p.density * 2},
	}
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	x := p.rng.Float64() * total
	for _, c := range choices {
		x -= c.weight
		if x < 0 {
			return c.ticks
		}
	}
	return tpb
}

// pickPitch chooses the next melody pitch. Chord tones are preferred
// on strong beats, scale tones otherwise; candidates stay within an
// octave of the previous note and near movement is weighted above
// leaps unless a low-probability leap fires.
func pickPitch(p params, chord theory.Chord, prev int, strong bool) int {
	useChordTones := strong && p.rng.Float64() < chordToneChance

	lo := util.Max(prev-12, melodyLow)
	hi := util.Min(prev+12, melodyHigh)

	var candidates []int
	for pitch := lo; pitch <= hi; pitch++ {
		if useChordTones {
			if chord.ContainsPitch(uint8(pitch)) && p.scale.Contains(uint8(pitch)) {
				candidates = append(candidates, pitch)
			}
		} else if p.scale.Contains(uint8(pitch)) {
			candidates = append(candidates, pitch)
		}
	}
	if len(candidates) == 0 {
		// Chord lies entirely outside the scale (explicit out-of-key
		// progression); fall back to scale tones.
		for pitch := lo; pitch <= hi; pitch++ {
			if p.scale.Contains(uint8(pitch)) {
				candidates = append(candidates, pitch)
			}
		}
	}
	if len(candidates) == 0 {
		return int(p.scale.Snap(uint8(prev)))
	}

	if p.rng.Float64() < leapChance {
		return candidates[p.rng.Intn(len(candidates))]
	}

	// Weight candidates by closeness to the previous pitch.
	weights := make([]float64, len(candidates))
	var total float64
	for i, pitch := range candidates {
		dist := pitch - prev
		if dist < 0 {
			dist = -dist
		}
		w := 1.0 / float64(1+dist)
		if dist == 0 {
			w *= 0.5 // discourage repeating the same pitch
		}
		weights[i] = w
		total += w
	}
	x := p.rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}
