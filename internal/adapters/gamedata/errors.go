package gamedata

import "errors"

// Sentinel kinds for fetch errors.
var (
	ErrTransport        = errors.New("game data request failed")
	ErrUnexpectedStatus = errors.New("unexpected game data status")
	ErrDecode           = errors.New("invalid game data payload")
)
