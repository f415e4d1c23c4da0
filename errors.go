package branchwire

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPatch     = errors.New("unknown patch")
	ErrAnchorNotFound   = errors.New("could not find insertion point")
	ErrNoEntryPoint     = errors.New("no app delegate found")
	ErrNoManifest       = errors.New("dependency manifest not found")
	ErrNoBridgingHeader = errors.New("bridging header not found")
)

// PatchError ties a failed patch to the file it was applied to.
type PatchError struct {
	Patch string
	Path  string
	Err   error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Patch, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }
