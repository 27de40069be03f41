package memory

import "errors"

// ErrLimitExceeded is returned by Budget.Reserve when a reservation
// would push usage past the configured limit.
var ErrLimitExceeded = errors.New("memory: limit exceeded")
