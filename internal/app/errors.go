package service

import "errors"

// Sentinel kinds for pipeline errors. Both are fatal: without a resolved
// identity or a discovered run set no meaningful work is possible.
var (
	ErrResolveIdentity = errors.New("identity resolution failed")
	ErrDiscovery       = errors.New("run discovery failed")
)
