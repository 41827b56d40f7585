package handshake

import "errors"

var (
	ErrInvalidState = errors.New("invalid state")
	ErrInFlight     = errors.New("handshake already in progress")
)
