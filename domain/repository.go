// Package domain declares persistence ports implemented by adapters/store.
package domain

import (
	"context"

	"github.com/reldec/reldec/domain/model"
)

// SnapshotRepository persists rendered release manifests so later renderings
// can be diffed against them.
type SnapshotRepository interface {
	Save(ctx context.Context, snap *model.ReleaseSnapshot) error
	Latest(ctx context.Context, release string) (*model.ReleaseSnapshot, error)
	List(ctx context.Context, release string) ([]*model.ReleaseSnapshot, error)
}
