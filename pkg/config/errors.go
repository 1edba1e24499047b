package config

import "errors"

// ErrConfigInvalid marks an invalid configuration — the only error class
// allowed to abort startup. Every other failure degrades to an
// empty/partial result plus a log entry.
var ErrConfigInvalid = errors.New("config invalid")
