package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/reldec/reldec/adapters/kube"
	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/internal/logging"
)

// DiffInput identifies the release to render and the baseline to compare
// against. When Previous is empty the latest stored snapshot is used; with
// no snapshot either, everything renders as Added.
type DiffInput struct {
	Set *model.ReleaseSet
	// Previous is a multi-document YAML manifest to diff against.
	Previous string
	// Store persists the new rendering as a snapshot after diffing.
	Store bool
}

// DiffOutput carries the plan, the newly rendered manifest and any warnings.
type DiffOutput struct {
	Plan       *kube.Plan
	Manifest   string
	Warnings   []model.Violation
	SnapshotID string
}

// Diff renders the release and compares it against the previous manifest.
// Rendering obeys the same atomicity as Render: Blocking violations fail the
// whole call before any comparison happens.
func (u *UseCase) Diff(ctx context.Context, in *DiffInput) (*DiffOutput, error) {
	if in == nil || in.Set == nil {
		return nil, fmt.Errorf("missing release set")
	}
	log := logging.FromContext(ctx)

	rendered, err := u.Render(ctx, &RenderInput{Set: in.Set})
	if err != nil {
		return nil, err
	}

	previous := in.Previous
	if previous == "" && u.Repos != nil && u.Repos.Snapshot != nil {
		snap, err := u.Repos.Snapshot.Latest(ctx, in.Set.Name)
		switch {
		case errors.Is(err, model.ErrSnapshotNotFound):
			log.Warn(ctx, "no previous snapshot, diffing against empty release", "release", in.Set.Name)
		case err != nil:
			return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
		default:
			previous = snap.Manifest
		}
	}

	plan, err := kube.DiffManifests(previous, rendered.Manifest)
	if err != nil {
		return nil, err
	}

	out := &DiffOutput{Plan: plan, Manifest: rendered.Manifest, Warnings: rendered.Warnings}
	if in.Store {
		id, err := u.saveSnapshot(ctx, in.Set.Name, rendered.Manifest)
		if err != nil {
			return nil, err
		}
		out.SnapshotID = id
	}
	log.Info(ctx, "release diffed", "release", in.Set.Name, "entries", len(plan.Entries), "changed", plan.Changed())
	return out, nil
}
