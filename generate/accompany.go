package generate

import (
	"fmt"

	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/theory"
)

// defaultAccompanimentProgression is the ii-V-I-vi loop used when the
// caller does not pick one.
var defaultAccompanimentProgression = []string{"2", "5", "1", "6"}

// Accompany builds a chord accompaniment for an existing sequence and
// returns a copy with the chord track appended. The key comes from the
// sequence's key signature when it declares one, otherwise from cfg;
// tempo, meter, length and base velocity all follow the input so the
// chords sit under it. cfg may override the progression and velocity.
func Accompany(seq *model.Sequence, cfg model.GenerationConfig) (*model.Sequence, []string, error) {
	if seq.NumNotes() == 0 {
		return nil, nil, &model.InvalidConfigError{Field: "midi", Reason: "sequence has no notes to accompany"}
	}

	if ks := seq.KeySig; ks != nil {
		key, scale, err := theory.KeyFromSignature(ks.SharpsFlats, ks.Minor)
		if err != nil {
			return nil, nil, &model.InvalidConfigError{Field: "midi", Reason: err.Error()}
		}
		cfg.Key, cfg.Scale = key, scale
	}
	cfg.Tempo = seq.Tempo
	cfg.TimeSig = fmt.Sprintf("%v/%v", seq.TimeSig.Numerator, seq.TimeSig.Denominator)
	cfg.Bars = int(seq.Bars())
	if cfg.Velocity == 0 {
		cfg.Velocity = seq.AverageVelocity()
	}
	if len(cfg.Progression) == 0 {
		cfg.Progression = defaultAccompanimentProgression
	}

	p, err := newParams(cfg)
	if err != nil {
		return nil, nil, err
	}
	prog, warnings, err := buildProgression(cfg, p, seq.TicksPerBar())
	if err != nil {
		return nil, nil, err
	}

	out := &model.Sequence{
		Tempo:        seq.Tempo,
		TimeSig:      seq.TimeSig,
		KeySig:       seq.KeySig,
		TicksPerBeat: seq.TicksPerBeat,
		Tracks:       append([]model.Track(nil), seq.Tracks...),
	}
	chords := chordTrack(p, prog)
	chords.SortNotes()
	out.Tracks = append(out.Tracks, chords)
	return out, warnings, nil
}
