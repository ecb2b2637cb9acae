package constants

// DefaultTicksPerBeat is the metric division written into generated
// files. 480 divides evenly into eighths, triplets and sixteenths.
const DefaultTicksPerBeat = 480

// DrumChannel is the conventional GM percussion channel (0-indexed).
const DrumChannel = 9

const (
	MaxPitch    = 127
	MaxVelocity = 127
	MaxChannel  = 15
)

// General MIDI program numbers used by the generators.
const (
	ProgramAcousticGrandPiano = 0
	ProgramStringEnsemble     = 48
)

// GM percussion keys (sent on DrumChannel).
const (
	DrumKick      = 36
	DrumSnare     = 38
	DrumClosedHat = 42
	DrumOpenHat   = 46
)

// DefaultVelocity is the base note velocity when none is configured.
const DefaultVelocity = 90
