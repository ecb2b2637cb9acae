package generate

import (
	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/util"
)

// rhythmTrack lays a kick/snare/hat pattern over the bar grid on the
// GM percussion channel. The skeleton is fixed; hat fills vary with
// density through the shared rng so seeded runs stay reproducible.
func rhythmTrack(p params) model.Track {
	track := model.Track{
		Name:    "rhythm",
		Channel: constants.DrumChannel,
	}

	tpb := uint32(constants.DefaultTicksPerBeat)
	beatsPerBar := uint32(p.timeSig.Numerator)
	hit := func(key uint8, start uint32, velocity uint8) {
		track.AddNote(model.Note{
			Pitch:    key,
			Start:    start,
			Duration: tpb / 4,
			Velocity: velocity,
			Channel:  constants.DrumChannel,
		})
	}

	accent := util.Clamp(p.velocity+15, 1, constants.MaxVelocity)
	soft := uint8(float64(p.velocity) * 0.6)
	if soft == 0 {
		soft = 1
	}

	for bar := 0; bar < p.bars; bar++ {
		barStart := uint32(bar) * beatsPerBar * tpb
		for beat := uint32(0); beat < beatsPerBar; beat++ {
			at := barStart + beat*tpb
			if beat%2 == 0 {
				hit(constants.DrumKick, at, accent)
			} else {
				hit(constants.DrumSnare, at, p.velocity)
			}
			hit(constants.DrumClosedHat, at, soft)
			// Offbeat hats thicken with density; the last offbeat of a
			// bar occasionally opens.
			if p.rng.Float64() < p.density {
				key := uint8(constants.DrumClosedHat)
				if beat == beatsPerBar-1 && p.rng.Float64() < 0.2 {
					key = constants.DrumOpenHat
				}
				hit(key, at+tpb/2, soft)
			}
		}
	}
	return track
}
