package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrTokenConflict = errors.New("token already bound to a different market")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrRateLimited   = errors.New("rate limited")
)
