package kube

import (
	"errors"
	"strings"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/utils/ptr"

	"github.com/reldec/reldec/domain/model"
)

func qty(t *testing.T, s string) *resource.Quantity {
	t.Helper()
	q, err := resource.ParseQuantity(s)
	if err != nil {
		t.Fatalf("parse quantity %q: %v", s, err)
	}
	return &q
}

// gatewaySpec is the routed long-running service used across renderer tests:
// container port 3000, health check on the same port, public ingress, no
// exposedPort override.
func gatewaySpec(t *testing.T) model.ServiceSpec {
	return model.ServiceSpec{
		Name:          "gateway",
		Workload:      model.WorkloadLongRunning,
		Image:         model.ImageRef{Repository: "registry.example.com/gateway", Tag: "v1"},
		ContainerPort: 3000,
		HealthCheck:   &model.HealthCheck{Path: "/healthz", Port: 3000},
		Resources:     &model.Resources{RequestsCPU: qty(t, "100m"), LimitsCPU: qty(t, "500m")},
		Ingress:       &model.Ingress{Host: "api.example.com", PathPrefix: "/"},
	}
}

func migrateSpec() model.ServiceSpec {
	return model.ServiceSpec{
		Name:       "migrate",
		Workload:   model.WorkloadOneShot,
		Image:      model.ImageRef{Repository: "registry.example.com/migrate", Tag: "v1"},
		Command:    []string{"/app/migrate", "--up"},
		RetryLimit: ptr.To[int32](2),
	}
}

func releaseSet(services ...model.ServiceSpec) *model.ReleaseSet {
	return &model.ReleaseSet{
		Name:      "backend",
		Namespace: "prod",
		Tunables:  model.DefaultTunables(),
		Secrets: []model.SharedBundle{
			{Name: "db-credentials", Keys: []string{"username", "password"}},
		},
		Configs: []model.SharedBundle{
			{Name: "app-settings", Keys: []string{"log_level"}},
		},
		Services: services,
	}
}

func TestRenderGatewayScenario(t *testing.T) {
	set := releaseSet(gatewaySpec(t))
	r := NewRenderer(set)

	objs, err := r.RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("expected Deployment, Service, Ingress, got %d objects", len(objs))
	}

	dep, ok := objs[0].(*appsv1.Deployment)
	if !ok {
		t.Fatalf("objs[0] is %T, want Deployment", objs[0])
	}
	if dep.Namespace != "prod" {
		t.Errorf("deployment namespace = %q", dep.Namespace)
	}
	ctn := dep.Spec.Template.Spec.Containers[0]
	if ctn.Image != "registry.example.com/gateway:v1" {
		t.Errorf("container image = %q", ctn.Image)
	}
	if ctn.LivenessProbe == nil || ctn.ReadinessProbe == nil {
		t.Fatal("both probes must be set")
	}
	for _, p := range []*corev1.Probe{ctn.LivenessProbe, ctn.ReadinessProbe} {
		if got := p.HTTPGet.Port.IntValue(); got != 3000 {
			t.Errorf("probe port = %d, want 3000", got)
		}
		if p.HTTPGet.Path != "/healthz" {
			t.Errorf("probe path = %q", p.HTTPGet.Path)
		}
		if p.InitialDelaySeconds != 5 || p.PeriodSeconds != 10 || p.TimeoutSeconds != 3 {
			t.Errorf("probe timings = %d/%d/%d, want defaults 5/10/3",
				p.InitialDelaySeconds, p.PeriodSeconds, p.TimeoutSeconds)
		}
	}

	// No exposedPort, but routed: the Service serves the container port with
	// an explicit targetPort.
	svc, ok := objs[1].(*corev1.Service)
	if !ok {
		t.Fatalf("objs[1] is %T, want Service", objs[1])
	}
	port := svc.Spec.Ports[0]
	if port.Port != 3000 || port.TargetPort.IntValue() != 3000 {
		t.Errorf("service port %d -> %v, want 3000 -> 3000", port.Port, port.TargetPort)
	}

	ing, ok := objs[2].(*netv1.Ingress)
	if !ok {
		t.Fatalf("objs[2] is %T, want Ingress", objs[2])
	}
	rule := ing.Spec.Rules[0]
	if rule.Host != "api.example.com" {
		t.Errorf("ingress host = %q", rule.Host)
	}
	backend := rule.HTTP.Paths[0].Backend.Service
	if backend.Name != "gateway" || backend.Port.Number != 3000 {
		t.Errorf("ingress backend = %s:%d, want gateway:3000", backend.Name, backend.Port.Number)
	}
	if len(ing.Spec.TLS) != 0 {
		t.Errorf("no TLS requested, got %v", ing.Spec.TLS)
	}
}

func TestRenderExposedPortTranslation(t *testing.T) {
	spec := gatewaySpec(t)
	spec.Ingress = nil
	spec.ExposedPort = 80
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var svc *corev1.Service
	for _, o := range objs {
		if s, ok := o.(*corev1.Service); ok {
			svc = s
		}
	}
	if svc == nil {
		t.Fatal("no Service rendered")
	}
	port := svc.Spec.Ports[0]
	if port.Port != 80 || port.TargetPort.IntValue() != 3000 {
		t.Errorf("service port %d -> %v, want 80 -> 3000", port.Port, port.TargetPort)
	}
}

func TestRenderNoServiceWithoutExposureOrRoute(t *testing.T) {
	spec := gatewaySpec(t)
	spec.Ingress = nil
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, o := range objs {
		if _, ok := o.(*corev1.Service); ok {
			t.Fatal("Service must not be emitted for an internal-only workload")
		}
	}
}

func TestRenderOneShotJob(t *testing.T) {
	set := releaseSet(migrateSpec())
	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected a single Job, got %d objects", len(objs))
	}
	job, ok := objs[0].(*batchv1.Job)
	if !ok {
		t.Fatalf("objs[0] is %T, want Job", objs[0])
	}
	if got := *job.Spec.BackoffLimit; got != 2 {
		t.Errorf("backoffLimit = %d, want 2", got)
	}
	pod := job.Spec.Template.Spec
	if pod.RestartPolicy != corev1.RestartPolicyNever {
		t.Errorf("restartPolicy = %q, want Never", pod.RestartPolicy)
	}
	if got := pod.Containers[0].Command; len(got) != 2 || got[0] != "/app/migrate" {
		t.Errorf("command = %v", got)
	}
}

func TestRenderOneShotDefaultRetryLimit(t *testing.T) {
	spec := migrateSpec()
	spec.RetryLimit = nil
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	job := objs[0].(*batchv1.Job)
	if got := *job.Spec.BackoffLimit; got != 3 {
		t.Errorf("backoffLimit = %d, want default 3", got)
	}
}

func TestRenderRefusesBlockingSpec(t *testing.T) {
	spec := migrateSpec()
	spec.Command = nil
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if objs != nil {
		t.Fatalf("expected no objects, got %d", len(objs))
	}
	var pre *model.RenderPreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected RenderPreconditionError, got %v", err)
	}
	if pre.Service != "migrate" || len(pre.Violations) == 0 {
		t.Errorf("precondition error incomplete: %+v", pre)
	}
}

func TestRenderRefusesProbeWithoutContainerPort(t *testing.T) {
	spec := migrateSpec()
	spec.HealthCheck = &model.HealthCheck{Path: "/ready", Port: 0}
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if objs != nil {
		t.Fatalf("expected no objects, got %d", len(objs))
	}
	var pre *model.RenderPreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected RenderPreconditionError, got %v", err)
	}
	var found bool
	for _, v := range pre.Violations {
		if v.Rule == model.RulePortRange {
			found = true
		}
	}
	if !found {
		t.Errorf("expected port violation, got: %v", pre.Violations)
	}
}

func TestRenderHPA(t *testing.T) {
	spec := gatewaySpec(t)
	spec.Ingress = nil
	spec.Scaling = &model.Scaling{MinReplicas: 2, MaxReplicas: 5, TargetCPUPercent: 70}
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	dep := objs[0].(*appsv1.Deployment)
	if got := *dep.Spec.Replicas; got != 2 {
		t.Errorf("replicas = %d, want scaling.min 2", got)
	}
	var hpa *autoscalingv2.HorizontalPodAutoscaler
	for _, o := range objs {
		if h, ok := o.(*autoscalingv2.HorizontalPodAutoscaler); ok {
			hpa = h
		}
	}
	if hpa == nil {
		t.Fatal("no HPA rendered")
	}
	if hpa.Spec.ScaleTargetRef.Name != "gateway" || hpa.Spec.ScaleTargetRef.Kind != "Deployment" {
		t.Errorf("scaleTargetRef = %+v", hpa.Spec.ScaleTargetRef)
	}
	if *hpa.Spec.MinReplicas != 2 || hpa.Spec.MaxReplicas != 5 {
		t.Errorf("replica bounds = %d..%d", *hpa.Spec.MinReplicas, hpa.Spec.MaxReplicas)
	}
	if got := *hpa.Spec.Metrics[0].Resource.Target.AverageUtilization; got != 70 {
		t.Errorf("target cpu = %d", got)
	}
}

func TestRenderEnvReferencesOnly(t *testing.T) {
	spec := gatewaySpec(t)
	spec.Ingress = nil
	spec.SecretRefs = []model.SecretRef{
		{EnvVar: "DB_USER", SecretName: "db-credentials", SecretKey: "username"},
		{EnvVar: "DB_PASS", SecretName: "db-credentials", SecretKey: "password"},
	}
	spec.ConfigRefs = []model.ConfigRef{
		{EnvVar: "LOG_LEVEL", ConfigName: "app-settings", ConfigKey: "log_level"},
	}
	set := releaseSet(spec)

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	env := objs[0].(*appsv1.Deployment).Spec.Template.Spec.Containers[0].Env
	if len(env) != 3 {
		t.Fatalf("expected 3 env vars, got %d", len(env))
	}
	for _, e := range env {
		if e.Value != "" {
			t.Errorf("env %s carries an inline value %q", e.Name, e.Value)
		}
		if e.ValueFrom == nil {
			t.Errorf("env %s has no reference source", e.Name)
		}
	}
	// Declared order preserved: secrets first, then configs.
	if env[0].Name != "DB_USER" || env[2].Name != "LOG_LEVEL" {
		t.Errorf("env order = %s,%s,%s", env[0].Name, env[1].Name, env[2].Name)
	}
	if sel := env[0].ValueFrom.SecretKeyRef; sel.Name != "db-credentials" || sel.Key != "username" {
		t.Errorf("secret ref = %+v", sel)
	}
	if sel := env[2].ValueFrom.ConfigMapKeyRef; sel.Name != "app-settings" || sel.Key != "log_level" {
		t.Errorf("config ref = %+v", sel)
	}
}

func TestRenderTLSByNameOnly(t *testing.T) {
	spec := gatewaySpec(t)
	spec.Ingress.TLSSecretName = "gateway-tls"
	set := releaseSet(spec)
	set.Tunables.IngressClass = "nginx"

	objs, err := NewRenderer(set).RenderService(&set.Services[0])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	ing := objs[len(objs)-1].(*netv1.Ingress)
	if got := *ing.Spec.IngressClassName; got != "nginx" {
		t.Errorf("ingressClassName = %q", got)
	}
	tls := ing.Spec.TLS
	if len(tls) != 1 || tls[0].SecretName != "gateway-tls" {
		t.Fatalf("tls = %v", tls)
	}
	if len(tls[0].Hosts) != 1 || tls[0].Hosts[0] != "api.example.com" {
		t.Errorf("tls hosts = %v", tls[0].Hosts)
	}
}

func TestRenderDeterministicManifest(t *testing.T) {
	set := releaseSet(gatewaySpec(t), migrateSpec())
	r := NewRenderer(set)

	render := func() string {
		t.Helper()
		var all []string
		for i := range set.Services {
			objs, err := r.RenderService(&set.Services[i])
			if err != nil {
				t.Fatalf("render %q: %v", set.Services[i].Name, err)
			}
			m, err := BuildManifest(objs)
			if err != nil {
				t.Fatalf("manifest: %v", err)
			}
			all = append(all, m)
		}
		return strings.Join(all, "")
	}

	first := render()
	second := render()
	if first != second {
		t.Fatal("manifest not byte-identical across renders")
	}
	if !strings.Contains(first, "kind: Deployment") || !strings.Contains(first, "kind: Job") {
		t.Errorf("manifest missing expected kinds:\n%s", first)
	}
	if strings.Contains(first, "creationTimestamp") {
		t.Error("manifest must not carry creationTimestamp")
	}
}
