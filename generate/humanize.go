package generate

import (
	"math/rand"

	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/util"
)

const (
	// timingJitterDiv bounds timing jitter to ticksPerBeat/32 either
	// way, roughly the spread of a relaxed human performance.
	timingJitterDiv = 32
	velocityJitter  = 8
)

// Humanize applies bounded random jitter to note starts and
// velocities. Note invariants hold afterwards: starts never go
// negative, velocities stay in 1..127, durations are untouched.
func Humanize(seq *model.Sequence, rng *rand.Rand) {
	window := int(seq.TicksPerBeat) / timingJitterDiv
	if window == 0 {
		window = 1
	}
	for ti := range seq.Tracks {
		notes := seq.Tracks[ti].Notes
		for ni := range notes {
			dt := rng.Intn(2*window+1) - window
			start := int(notes[ni].Start) + dt
			if start < 0 {
				start = 0
			}
			notes[ni].Start = uint32(start)

			dv := rng.Intn(2*velocityJitter+1) - velocityJitter
			notes[ni].Velocity = uint8(util.Clamp(int(notes[ni].Velocity)+dv, 1, constants.MaxVelocity))
		}
	}
}
