package release

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/utils/ptr"

	"github.com/reldec/reldec/adapters/kube"
	"github.com/reldec/reldec/domain/model"
)

// fakeSnapshotRepo is an in-memory SnapshotRepository.
type fakeSnapshotRepo struct {
	snaps   []*model.ReleaseSnapshot
	saveErr error
}

func (f *fakeSnapshotRepo) Save(_ context.Context, snap *model.ReleaseSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	snap.ID = "snap-test"
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeSnapshotRepo) Latest(_ context.Context, release string) (*model.ReleaseSnapshot, error) {
	var latest *model.ReleaseSnapshot
	for _, s := range f.snaps {
		if s.Release == release {
			latest = s
		}
	}
	if latest == nil {
		return nil, model.ErrSnapshotNotFound
	}
	return latest, nil
}

func (f *fakeSnapshotRepo) List(_ context.Context, release string) ([]*model.ReleaseSnapshot, error) {
	var out []*model.ReleaseSnapshot
	for _, s := range f.snaps {
		if s.Release == release {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func qty(t *testing.T, s string) *resource.Quantity {
	t.Helper()
	q, err := resource.ParseQuantity(s)
	if err != nil {
		t.Fatalf("parse quantity %q: %v", s, err)
	}
	return &q
}

func testSet(t *testing.T, tag string) *model.ReleaseSet {
	return &model.ReleaseSet{
		Name:      "backend",
		Namespace: "prod",
		Tunables:  model.DefaultTunables(),
		Services: []model.ServiceSpec{
			{
				Name:          "gateway",
				Workload:      model.WorkloadLongRunning,
				Image:         model.ImageRef{Repository: "registry.example.com/gateway", Tag: tag},
				ContainerPort: 3000,
				ExposedPort:   80,
				HealthCheck:   &model.HealthCheck{Path: "/healthz", Port: 3000},
				Resources:     &model.Resources{RequestsCPU: qty(t, "100m"), LimitsCPU: qty(t, "500m")},
			},
			{
				Name:       "migrate",
				Workload:   model.WorkloadOneShot,
				Image:      model.ImageRef{Repository: "registry.example.com/migrate", Tag: tag},
				Command:    []string{"/app/migrate"},
				RetryLimit: ptr.To[int32](1),
			},
		},
	}
}

func TestValidateUseCase(t *testing.T) {
	u := &UseCase{}
	set := testSet(t, "v1")
	set.Services[0].HealthCheck.Port = 8080 // R3

	out, err := u.Validate(context.Background(), &ValidateInput{Set: set})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.Report.Valid() {
		t.Fatal("expected blocking report")
	}
	var found bool
	for _, v := range out.Report.Blocking() {
		if v.Rule == model.RuleProbePortMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("report = %v", out.Report.Violations)
	}
}

func TestRenderStoresSnapshot(t *testing.T) {
	repo := &fakeSnapshotRepo{}
	u := &UseCase{Repos: &Repos{Snapshot: repo}}

	out, err := u.Render(context.Background(), &RenderInput{Set: testSet(t, "v1"), Store: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Manifest == "" || len(out.Objects) == 0 {
		t.Fatal("empty render output")
	}
	if out.SnapshotID != "snap-test" {
		t.Errorf("snapshot id = %q", out.SnapshotID)
	}
	if len(repo.snaps) != 1 || repo.snaps[0].Manifest != out.Manifest {
		t.Error("snapshot not persisted with the rendered manifest")
	}
}

func TestRenderWithoutStoreNeedsNoRepo(t *testing.T) {
	u := &UseCase{}
	out, err := u.Render(context.Background(), &RenderInput{Set: testSet(t, "v1")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.SnapshotID != "" {
		t.Errorf("snapshot id = %q, want empty", out.SnapshotID)
	}
}

func TestRenderStoreWithoutRepoFails(t *testing.T) {
	u := &UseCase{}
	_, err := u.Render(context.Background(), &RenderInput{Set: testSet(t, "v1"), Store: true})
	if err == nil {
		t.Fatal("expected error when storing without a repository")
	}
}

func TestRenderAtomicOnBlocking(t *testing.T) {
	set := testSet(t, "v1")
	set.Services[1].Command = nil // R10

	u := &UseCase{}
	out, err := u.Render(context.Background(), &RenderInput{Set: set})
	if out != nil {
		t.Fatal("expected nil output")
	}
	var ae *model.AssembleError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AssembleError, got %v", err)
	}
}

func TestDiffAgainstLatestSnapshot(t *testing.T) {
	repo := &fakeSnapshotRepo{}
	u := &UseCase{Repos: &Repos{Snapshot: repo}}
	ctx := context.Background()

	if _, err := u.Render(ctx, &RenderInput{Set: testSet(t, "v1"), Store: true}); err != nil {
		t.Fatalf("render v1: %v", err)
	}

	out, err := u.Diff(ctx, &DiffInput{Set: testSet(t, "v2"), Store: true})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !out.Plan.Changed() {
		t.Fatalf("expected changes:\n%s", out.Plan.String())
	}
	var changed []kube.PlanEntry
	for _, e := range out.Plan.Entries {
		if e.Action == kube.PlanChanged {
			changed = append(changed, e)
		}
	}
	// Both container images move from v1 to v2; nothing else changes.
	if len(changed) != 2 {
		t.Fatalf("changed entries = %d:\n%s", len(changed), out.Plan.String())
	}
	for _, e := range changed {
		if len(e.Fields) != 1 || !strings.HasSuffix(e.Fields[0], "containers[0].image") {
			t.Errorf("%s fields = %v", e.ID(), e.Fields)
		}
	}
	if len(repo.snaps) != 2 {
		t.Errorf("snapshots stored = %d, want 2", len(repo.snaps))
	}
}

func TestDiffWithoutSnapshotFallsBackToEmpty(t *testing.T) {
	u := &UseCase{Repos: &Repos{Snapshot: &fakeSnapshotRepo{}}}

	out, err := u.Diff(context.Background(), &DiffInput{Set: testSet(t, "v1")})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, e := range out.Plan.Entries {
		if e.Action != kube.PlanAdded {
			t.Errorf("%s action = %s, want Added", e.ID(), e.Action)
		}
	}
}

func TestDiffExplicitPrevious(t *testing.T) {
	ctx := context.Background()
	u := &UseCase{}

	first, err := u.Render(ctx, &RenderInput{Set: testSet(t, "v1")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out, err := u.Diff(ctx, &DiffInput{Set: testSet(t, "v1"), Previous: first.Manifest})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out.Plan.Changed() {
		t.Fatalf("identical release produced changes:\n%s", out.Plan.String())
	}
}
