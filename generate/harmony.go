package generate

import (
	"fmt"
	"strconv"

	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/theory"
)

// chordOctave places accompaniment chords below the melody register.
const chordOctave = 3

// buildProgression uses an explicit progression verbatim when one is
// configured, otherwise synthesizes one. Either way the result spans
// exactly p.bars bars, one step per bar.
func buildProgression(cfg model.GenerationConfig, p params, ticksPerBar uint32) (theory.Progression, []string, error) {
	if len(cfg.Progression) == 0 {
		return synthesizeProgression(p, ticksPerBar), nil, nil
	}
	return explicitProgression(cfg.Progression, p, ticksPerBar)
}

// explicitProgression resolves each entry as a scale degree ("2", "5",
// "0" for a rest bar) or a chord symbol ("Dm7"), repeating the pattern
// until it covers the requested bar count. Out-of-key chords produce a
// warning but are used as given.
func explicitProgression(entries []string, p params, ticksPerBar uint32) (theory.Progression, []string, error) {
	var steps []theory.ProgressionStep
	var warnings []string

	for i, entry := range entries {
		if degree, err := strconv.Atoi(entry); err == nil {
			if degree == 0 {
				steps = append(steps, theory.ProgressionStep{Duration: ticksPerBar, Rest: true})
				continue
			}
			if degree < 0 || degree > len(p.scale.Intervals) {
				reason := fmt.Sprintf("entry %v: degree %v out of range for %v scale", i, degree, p.scale.Name)
				return nil, nil, &model.InvalidConfigError{Field: "chord_progression", Reason: reason}
			}
			c, err := theory.DiatonicTriad(p.scale, degree)
			if err != nil {
				return nil, nil, &model.InvalidConfigError{Field: "chord_progression", Reason: err.Error()}
			}
			steps = append(steps, theory.ProgressionStep{Chord: c, Duration: ticksPerBar})
			continue
		}

		c, err := theory.ParseChord(entry)
		if err != nil {
			reason := fmt.Sprintf("entry %v: %v", i, err)
			return nil, nil, &model.InvalidConfigError{Field: "chord_progression", Reason: reason}
		}
		if !c.InKey(p.scale) {
			warnings = append(warnings, fmt.Sprintf("chord %v is outside %v %v; using it anyway", c, p.scale.Key, p.scale.Name))
		}
		steps = append(steps, theory.ProgressionStep{Chord: c, Duration: ticksPerBar})
	}

	if len(steps) == 0 {
		return nil, nil, &model.InvalidConfigError{Field: "chord_progression", Reason: "no entries"}
	}

	// Repeat the pattern until it covers every bar.
	prog := make(theory.Progression, 0, p.bars)
	for i := 0; i < p.bars; i++ {
		prog = append(prog, steps[i%len(steps)])
	}
	return prog, warnings, nil
}

// degreeTransitions is a first-order Markov chain over scale degrees.
// Weights favor the tonic -> subdominant -> dominant -> tonic cadence
// motion.
var degreeTransitions = map[int][]struct {
	degree int
	weight float64
}{
	1: {{4, 3}, {5, 2}, {6, 2}, {2, 1}, {3, 1}},
	2: {{5, 4}, {7, 1}, {4, 1}},
	3: {{6, 3}, {4, 2}, {2, 1}},
	4: {{5, 4}, {1, 2}, {2, 1}, {7, 1}},
	5: {{1, 5}, {6, 2}, {4, 1}},
	6: {{2, 3}, {4, 2}, {5, 2}},
	7: {{1, 4}, {3, 1}},
}

// synthesizeProgression walks the chain one chord per bar, starting on
// the tonic and forcing the final bar back to it.
func synthesizeProgression(p params, ticksPerBar uint32) theory.Progression {
	n := len(p.scale.Intervals)
	prog := make(theory.Progression, 0, p.bars)

	degree := 1
	for bar := 0; bar < p.bars; bar++ {
		if bar == p.bars-1 && p.bars > 1 {
			degree = 1
		} else if bar > 0 {
			degree = nextDegree(degree, p)
		}
		// Scales with fewer than seven degrees (pentatonic, blues)
		// fold the chain onto the degrees they have.
		folded := ((degree - 1) % n) + 1
		c, err := theory.DiatonicTriad(p.scale, folded)
		if err != nil {
			// Degrees are folded into range above.
			panic("diatonic triad: " + err.Error())
		}
		prog = append(prog, theory.ProgressionStep{Chord: c, Duration: ticksPerBar})
	}
	return prog
}

func nextDegree(current int, p params) int {
	choices, ok := degreeTransitions[current]
	if !ok {
		return 1
	}
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	x := p.rng.Float64() * total
	for _, c := range choices {
		x -= c.weight
		if x < 0 {
			return c.degree
		}
	}
	return choices[len(choices)-1].degree
}

// chordTrack voices each progression step as a block chord. The
// configured program only applies to the melody; chords get strings.
func chordTrack(p params, prog theory.Progression) model.Track {
	track := model.Track{
		Name:    "chords",
		Program: constants.ProgramStringEnsemble,
		Channel: chordChannel,
	}
	velocity := uint8(float64(p.velocity) * 0.8)
	if velocity == 0 {
		velocity = 1
	}

	var cursor uint32
	for _, step := range prog {
		if step.Rest {
			cursor += step.Duration
			continue
		}
		for _, pitch := range step.Chord.Voice(chordOctave) {
			track.AddNote(model.Note{
				Pitch:    pitch,
				Start:    cursor,
				Duration: step.Duration,
				Velocity: velocity,
				Channel:  chordChannel,
			})
		}
		cursor += step.Duration
	}
	return track
}
