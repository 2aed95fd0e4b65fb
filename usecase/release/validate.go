package release

import (
	"context"
	"fmt"

	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/internal/logging"
)

// ValidateInput identifies the release to validate.
type ValidateInput struct {
	Set *model.ReleaseSet
}

// ValidateOutput carries the rule-tagged validation report.
type ValidateOutput struct {
	Report *model.ValidationReport
}

// Validate runs every per-service rule plus the cross-service checks and
// returns the full report. It never aborts on violations; gating on Blocking
// severity is the caller's decision.
func (u *UseCase) Validate(ctx context.Context, in *ValidateInput) (*ValidateOutput, error) {
	if in == nil || in.Set == nil {
		return nil, fmt.Errorf("missing release set")
	}
	report := model.ValidateSet(in.Set, u.Options)
	logging.FromContext(ctx).Info(ctx, "release validated",
		"release", in.Set.Name,
		"services", len(in.Set.Services),
		"blocking", len(report.Blocking()),
		"warnings", len(report.Warnings()))
	return &ValidateOutput{Report: report}, nil
}
