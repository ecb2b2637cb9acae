package model

import (
	"errors"
	"fmt"
)

// ErrPlaybackCancelled signals a clean, caller-requested stop of live
// playback. It is not a failure.
var ErrPlaybackCancelled = errors.New("playback cancelled")

// ErrDeviceUnavailable covers missing or busy MIDI ports.
var ErrDeviceUnavailable = errors.New("midi device unavailable")

// InvalidPitchError reports a pitch or pitch class outside its valid
// range.
type InvalidPitchError struct {
	Value int
	Kind  string // "pitch" or "pitch class"
}

func (e *InvalidPitchError) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Kind, e.Value)
}

// InvalidConfigError names the offending GenerationConfig field so the
// caller can correct it.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config field %q: %v", e.Field, e.Reason)
}

// MalformedStreamError aborts a whole parse; the codec never returns a
// partially decoded sequence.
type MalformedStreamError struct {
	Offset int
	Reason string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("malformed midi stream at byte %v: %v", e.Offset, e.Reason)
}

// IsInvalidConfig reports whether err is (or wraps) an
// InvalidConfigError.
func IsInvalidConfig(err error) bool {
	var ice *InvalidConfigError
	return errors.As(err, &ice)
}

// IsMalformedStream reports whether err is (or wraps) a
// MalformedStreamError.
func IsMalformedStream(err error) bool {
	var mse *MalformedStreamError
	return errors.As(err, &mse)
}
