package model

// GenerationConfig is the full set of recognized generation
// parameters. A nil Seed means non-reproducible randomness; setting it
// makes generation fully deterministic.
type GenerationConfig struct {
	Key     string  `json:"key"`
	Scale   string  `json:"scale"`
	Tempo   float64 `json:"tempo"`
	Bars    int     `json:"bars"`
	TimeSig string  `json:"time_sig,omitempty"` // "4/4" form, defaults to 4/4

	// Progression entries are either scale degrees ("1".."7", "0" for
	// a rest bar) or chord symbols ("Dm7", "G", "Cmaj7"). Empty means
	// synthesize one.
	Progression []string `json:"chord_progression,omitempty"`

	Seed     *int64  `json:"seed,omitempty"`
	Density  float64 `json:"density,omitempty"`
	Humanize bool    `json:"humanize,omitempty"`

	// Program selects the GM melody instrument, Velocity overrides the
	// base note velocity, WithRhythm adds a percussion track.
	Program    uint8 `json:"program,omitempty"`
	Velocity   uint8 `json:"velocity,omitempty"`
	WithRhythm bool  `json:"with_rhythm,omitempty"`
}
