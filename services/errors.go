package services

import "errors"

var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidDevice = errors.New("invalid device")
	ErrJobRunning    = errors.New("notification job already running")
)
