package repository

import "errors"

var (
	ErrDBNotReady = errors.New("database not initialized")
	// ErrNoChange is returned by conditional updates that matched no row.
	ErrNoChange = errors.New("no row updated")
)
