package scheduler

import "errors"

var (
	ErrUnknownTask    = errors.New("scheduler: unknown task")
	ErrAlreadyRunning = errors.New("scheduler: task already running")
)
