package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a release.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// RenderPreconditionError reports that rendering was attempted on a spec with
// Blocking violations. This is a programming-contract error, not a user error:
// callers must validate before rendering.
type RenderPreconditionError struct {
	Service    string
	Violations []Violation
}

func (e *RenderPreconditionError) Error() string {
	return fmt.Sprintf("render precondition failed: service %q has %d blocking violations", e.Service, len(e.Violations))
}

// AssembleError reports that assembly was refused for a release with Blocking
// violations. No partial manifest set is produced.
type AssembleError struct {
	Report *ValidationReport
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("assembly refused: release has %d blocking violations", len(e.Report.Blocking()))
}
