package kube

import (
	"context"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/internal/logging"
)

// Assemble composes the per-service resource sets of a release into one
// ordered object list. Every service is validated first; any Blocking
// violation fails the whole call atomically with an AssembleError and zero
// objects. Warnings are returned alongside the objects.
//
// Services are independent, so rendering fans out to one goroutine per
// service and joins before concatenation. Output order is the service
// declaration order, so the result is deterministic regardless of scheduling.
func (r *Renderer) Assemble(ctx context.Context) ([]runtime.Object, []model.Violation, error) {
	log := logging.FromContext(ctx)

	report := model.ValidateSet(r.Set, r.Options)
	if !report.Valid() {
		log.Warn(ctx, "assembly refused", "release", r.Set.Name, "blocking", len(report.Blocking()))
		return nil, nil, &model.AssembleError{Report: report}
	}

	perService := make([][]runtime.Object, len(r.Set.Services))
	var g errgroup.Group
	for i := range r.Set.Services {
		i := i
		g.Go(func() error {
			objs, err := r.RenderService(&r.Set.Services[i])
			if err != nil {
				return err
			}
			perService[i] = objs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var objs []runtime.Object
	for _, svcObjs := range perService {
		objs = append(objs, svcObjs...)
	}
	log.Info(ctx, "release assembled",
		"release", r.Set.Name, "services", len(r.Set.Services),
		"objects", len(objs), "warnings", len(report.Warnings()))
	return objs, report.Warnings(), nil
}
