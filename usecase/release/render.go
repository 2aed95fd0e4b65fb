package release

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/reldec/reldec/adapters/kube"
	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/internal/logging"
)

// RenderInput identifies the release to render.
type RenderInput struct {
	Set *model.ReleaseSet
	// Store persists the rendered manifest as a snapshot for later diffs.
	Store bool
}

// RenderOutput carries the ordered objects, their serialized manifest, and
// the non-fatal warnings collected during validation.
type RenderOutput struct {
	Objects    []runtime.Object
	Manifest   string
	Warnings   []model.Violation
	SnapshotID string
}

// Render validates and renders a whole release. Any Blocking violation fails
// the call atomically with zero output objects.
func (u *UseCase) Render(ctx context.Context, in *RenderInput) (*RenderOutput, error) {
	if in == nil || in.Set == nil {
		return nil, fmt.Errorf("missing release set")
	}
	r := kube.NewRenderer(in.Set)
	r.Options = u.Options

	objs, warnings, err := r.Assemble(ctx)
	if err != nil {
		return nil, err
	}
	manifest, err := kube.BuildManifest(objs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}

	out := &RenderOutput{Objects: objs, Manifest: manifest, Warnings: warnings}
	if in.Store {
		id, err := u.saveSnapshot(ctx, in.Set.Name, manifest)
		if err != nil {
			return nil, err
		}
		out.SnapshotID = id
	}
	return out, nil
}

func (u *UseCase) saveSnapshot(ctx context.Context, release, manifest string) (string, error) {
	if u.Repos == nil || u.Repos.Snapshot == nil {
		return "", fmt.Errorf("no snapshot repository configured")
	}
	snap := &model.ReleaseSnapshot{Release: release, Manifest: manifest, CreatedAt: time.Now()}
	if err := u.Repos.Snapshot.Save(ctx, snap); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	logging.FromContext(ctx).Info(ctx, "snapshot saved", "release", release, "snapshot", snap.ID)
	return snap.ID, nil
}
