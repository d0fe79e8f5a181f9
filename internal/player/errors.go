package player

import "errors"

// ErrPoolClosed is returned by Acquire after Teardown.
var ErrPoolClosed = errors.New("player: pool is torn down")
