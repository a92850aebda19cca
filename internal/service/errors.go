package service

import "errors"

// Handlers map these with errors.Is; wrapped messages carry the detail.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrUpstream       = errors.New("upstream failure")
	ErrPersistence    = errors.New("persistence failure")
	ErrConfiguration  = errors.New("configuration error")
	ErrAlreadyClaimed = errors.New("already claimed")
	ErrNotEligible    = errors.New("not eligible")
	ErrExpired        = errors.New("expired")
	ErrRender         = errors.New("document rendering failed")
)
