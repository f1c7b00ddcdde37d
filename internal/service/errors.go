package service

import "errors"

// ErrNoPositions is returned when a pipeline stage is invoked for a user who
// holds no positions. It is a precondition failure, not a partial result.
var ErrNoPositions = errors.New("no positions found")
