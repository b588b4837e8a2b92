package domain

import "errors"

var (
	ErrMonitorNotFound = errors.New("monitor not found")
	ErrInvalidMonitor  = errors.New("invalid monitor: id and known type required")
	// ErrMonitorInactive is returned by status writes to a paused monitor.
	ErrMonitorInactive = errors.New("monitor inactive")
)
