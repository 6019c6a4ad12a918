package domain

import "errors"

var (
	ErrNonFinite       = errors.New("value is not a finite number")
	ErrNonPositive     = errors.New("value must be positive")
	ErrMissingValue    = errors.New("required value missing")
	ErrLevelOrder      = errors.New("pivot levels must be strictly descending R3 > R2 > R1 > Pivot > S1 > S2 > S3")
	ErrUnknownLevel    = errors.New("unknown pivot level")
	ErrDuplicateBroken = errors.New("broken level listed more than once")
	ErrUnknownContext  = errors.New("unknown pivot context")
	ErrSeriesTooShort  = errors.New("price series too short")
	ErrInvalidRange    = errors.New("invalid high/low/close range")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)
