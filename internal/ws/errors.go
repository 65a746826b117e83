package ws

import (
	"errors"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

var (
	// ErrMalformedFrame is returned for inbound frames that fail shape or range checks.
	// The frame is dropped and the connection stays open.
	ErrMalformedFrame = errors.New("malformed frame")

	ErrPresetNotFound   = errors.New("preset not found")
	ErrConnectionClosed = errors.New("connection closed")
	ErrNotInRoom        = errors.New("not a member of room")
	ErrBadRequest       = errors.New("bad request")
	ErrRateLimited      = errors.New("rate limited")
)

// codeFor maps an operation error to the code carried by the error event.
func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return models.CodeMalformedFrame
	case errors.Is(err, ErrPresetNotFound):
		return models.CodePresetNotFound
	case errors.Is(err, ErrNotInRoom):
		return models.CodeNotInRoom
	case errors.Is(err, ErrRateLimited):
		return models.CodeRateLimited
	case errors.Is(err, ErrBadRequest):
		return models.CodeBadRequest
	default:
		return models.CodeInternal
	}
}
