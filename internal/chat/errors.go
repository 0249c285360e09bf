package chat

import "errors"

// Error taxonomy of the chat subsystem. Handlers map these onto HTTP status
// codes (400/404/403); the live channel reports them as {"error": ...}
// events. Anything not wrapping one of these is treated as internal.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
)
