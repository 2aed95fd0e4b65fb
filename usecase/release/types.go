// Package release implements the compiler's user-facing operations:
// Validate, Render and Diff over a ReleaseSet.
package release

import (
	"github.com/reldec/reldec/domain"
	"github.com/reldec/reldec/domain/model"
)

// Repos holds repositories needed for release use cases.
type Repos struct {
	Snapshot domain.SnapshotRepository
}

// UseCase wires repositories and validator policy for release use cases.
// Snapshot may be nil when no persistence is configured; only Diff against
// stored snapshots and snapshot saving require it.
type UseCase struct {
	Repos   *Repos
	Options *model.ValidateOptions
}
