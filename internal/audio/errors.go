package audio

import "errors"

var (
	// ErrSourceUnavailable indicates the audio source could not be acquired.
	ErrSourceUnavailable = errors.New("audio source unavailable")

	// ErrUnsupportedPlatform indicates the source lacks the analysis primitives the extractor needs.
	ErrUnsupportedPlatform = errors.New("audio analysis not supported on this platform")
)
