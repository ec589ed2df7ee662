package rtos

import "errors"

// ErrNilScheduler is returned by Init when passed a nil Scheduler.
var ErrNilScheduler = errors.New("rtos: scheduler must not be nil")

// ErrAlreadyStarted is returned by Start if called more than once.
var ErrAlreadyStarted = errors.New("rtos: kernel already started")
