package clann

import "errors"

var (
	errEmptyView         = errors.New("view has no points")
	errNotBuilt          = errors.New("index has not been built or restored")
	errAlreadyBuilt      = errors.New("index has already been built")
	errDimMismatch       = errors.New("query dimension does not match index dimension")
	errLocalIDOutOfRange = errors.New("sub-index returned a local id outside its cluster's assignment")
	errNoRecorder        = errors.New("no metrics recorder attached; use WithMetricsRecorder")
)
