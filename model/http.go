package model

type ErrorResponse struct {
	Error string `json:"detail"`
}

// InspectResponse summarizes an uploaded MIDI stream, typically the
// output of the transcription collaborator.
type InspectResponse struct {
	Tempo           float64 `json:"tempo"`
	TicksPerBeat    uint16  `json:"ticks_per_beat"`
	TimeSig         string  `json:"time_sig"`
	NumTracks       int     `json:"num_tracks"`
	NumNotes        int     `json:"num_notes"`
	Bars            uint32  `json:"bars"`
	DurationSeconds float64 `json:"duration_seconds"`
	AverageVelocity int     `json:"average_velocity"`
}

type PortInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type PortsResponse struct {
	In  []PortInfo `json:"in"`
	Out []PortInfo `json:"out"`
}
