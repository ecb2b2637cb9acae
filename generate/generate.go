package generate

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/theory"
)

const (
	DefaultTempo   = 120.0
	DefaultDensity = 0.5

	// MinTempo and MaxTempo bound tempo to values whose
	// microseconds-per-beat fit the 3-byte MIDI tempo event.
	MinTempo = 60_000_000.0 / 0xFFFFFF
	MaxTempo = 60_000_000.0

	melodyChannel = 0
	chordChannel  = 1
)

// params is a validated GenerationConfig plus everything derived from
// it. All randomness for one generation flows through the single rng
// so a fixed seed reproduces the sequence bit for bit.
type params struct {
	scale    theory.Scale
	tempo    float64
	bars     int
	timeSig  model.TimeSignature
	density  float64
	velocity uint8
	program  uint8
	rng      *rand.Rand
}

// Generate produces a complete sequence from the config. Returned
// warnings are non-fatal validation notes (e.g. an explicit
// progression chord outside the key).
func Generate(cfg model.GenerationConfig) (*model.Sequence, []string, error) {
	p, err := newParams(cfg)
	if err != nil {
		return nil, nil, err
	}

	seq := &model.Sequence{
		Tempo:        p.tempo,
		TimeSig:      p.timeSig,
		TicksPerBeat: constants.DefaultTicksPerBeat,
	}

	prog, warnings, err := buildProgression(cfg, p, seq.TicksPerBar())
	if err != nil {
		return nil, nil, err
	}

	seq.Tracks = append(seq.Tracks, melodyTrack(p, prog))
	seq.Tracks = append(seq.Tracks, chordTrack(p, prog))
	if cfg.WithRhythm {
		seq.Tracks = append(seq.Tracks, rhythmTrack(p))
	}

	if cfg.Humanize {
		Humanize(seq, p.rng)
	}
	for i := range seq.Tracks {
		seq.Tracks[i].SortNotes()
	}
	return seq, warnings, nil
}

func newParams(cfg model.GenerationConfig) (params, error) {
	var p params

	key := cfg.Key
	if key == "" {
		key = "C"
	}
	scaleName := cfg.Scale
	if scaleName == "" {
		scaleName = "major"
	}
	if _, err := theory.ParsePitchClass(key); err != nil {
		return p, &model.InvalidConfigError{Field: "key", Reason: err.Error()}
	}
	scale, err := theory.NewScale(key, scaleName)
	if err != nil {
		return p, &model.InvalidConfigError{Field: "scale", Reason: err.Error()}
	}
	p.scale = scale

	p.tempo = cfg.Tempo
	if p.tempo == 0 {
		p.tempo = DefaultTempo
	}
	if p.tempo < MinTempo || p.tempo > MaxTempo {
		return p, &model.InvalidConfigError{Field: "tempo", Reason: "not representable as a MIDI tempo"}
	}

	if cfg.Bars <= 0 {
		return p, &model.InvalidConfigError{Field: "bars", Reason: "must be positive"}
	}
	p.bars = cfg.Bars

	p.timeSig, err = parseTimeSig(cfg.TimeSig)
	if err != nil {
		return p, &model.InvalidConfigError{Field: "time_sig", Reason: err.Error()}
	}

	p.density = cfg.Density
	if p.density == 0 {
		p.density = DefaultDensity
	}
	if p.density < 0 || p.density > 1 {
		return p, &model.InvalidConfigError{Field: "density", Reason: "must be in (0, 1]"}
	}

	if cfg.Velocity > constants.MaxVelocity {
		return p, &model.InvalidConfigError{Field: "velocity", Reason: "must be at most 127"}
	}
	p.velocity = cfg.Velocity
	if p.velocity == 0 {
		p.velocity = constants.DefaultVelocity
	}
	if cfg.Program > constants.MaxPitch {
		return p, &model.InvalidConfigError{Field: "program", Reason: "must be at most 127"}
	}
	p.program = cfg.Program
	p.rng = newRand(cfg.Seed)
	return p, nil
}

func parseTimeSig(s string) (model.TimeSignature, error) {
	if s == "" {
		return model.TimeSignature{Numerator: 4, Denominator: 4}, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return model.TimeSignature{}, fmt.Errorf("expected n/d form, got %q", s)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil || num < 1 || num > 32 {
		return model.TimeSignature{}, fmt.Errorf("bad numerator in %q", s)
	}
	denom, err := strconv.Atoi(parts[1])
	if err != nil || denom < 1 || denom > 32 || denom&(denom-1) != 0 {
		return model.TimeSignature{}, fmt.Errorf("denominator in %q must be a power of two", s)
	}
	return model.TimeSignature{Numerator: uint8(num), Denominator: uint8(denom)}, nil
}

func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
