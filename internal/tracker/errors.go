package tracker

import "errors"

var (
	ErrNotFound      = errors.New("batch not found")
	ErrConfigMissing = errors.New("batch has no job configuration")
	ErrIO            = errors.New("read uploaded file")
	ErrNoFiles       = errors.New("no files provided")
	ErrInvalidState  = errors.New("batch cannot be started")
)

// errRejected marks an Update that refused the mutation without failing.
var errRejected = errors.New("rejected")
