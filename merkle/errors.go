package merkle

import "errors"

var (
	// ErrCapacityExceeded is returned when a tree is built with more leaves than it can hold
	ErrCapacityExceeded = errors.New("it exceeds the maximum allowed capacity")
	// ErrTreeFull is returned when inserting into a tree that has no room left
	ErrTreeFull = errors.New("the tree is full")
	// ErrIndexOutOfBounds is returned by Update and Path for an invalid leaf index
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	// ErrInvalidLevels is returned when the requested depth is not supported
	ErrInvalidLevels = errors.New("invalid number of levels")
)
