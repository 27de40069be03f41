package container

import "errors"

// ErrSectionNotFound is returned by Find when no section with the
// requested name exists in the container.
var ErrSectionNotFound = errors.New("container: section not found")
