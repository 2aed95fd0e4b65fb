// Package kube renders validated release models into Kubernetes API objects
// and compares rendered manifest sets.
package kube

import (
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/internal/naming"
)

// Renderer maps validated ServiceSpecs of one ReleaseSet to Kubernetes
// objects. Rendering is pure: identical input yields byte-identical manifests.
type Renderer struct {
	Set     *model.ReleaseSet
	Options *model.ValidateOptions
}

// NewRenderer creates a renderer bound to a release. A nil options value
// means the default validator policy.
func NewRenderer(set *model.ReleaseSet) *Renderer {
	return &Renderer{Set: set}
}

// commonLabels returns the labels applied to every object of a service.
func (r *Renderer) commonLabels(spec *model.ServiceSpec) map[string]string {
	return map[string]string{
		"app":                          spec.Name,
		"app.kubernetes.io/name":       spec.Name,
		"app.kubernetes.io/instance":   fmt.Sprintf("%s-%s", r.Set.Name, naming.ReleaseHash(r.Set.Name)),
		"app.kubernetes.io/part-of":    r.Set.Name,
		"app.kubernetes.io/managed-by": "reldec",
	}
}

// RenderService renders one service into its resource set, ordered:
// workload, Service (iff exposed or routed), HPA (iff scaling), Ingress
// (iff ingress).
// It fails fast with RenderPreconditionError when the spec has Blocking
// violations; it never emits best-effort output.
func (r *Renderer) RenderService(spec *model.ServiceSpec) ([]runtime.Object, error) {
	res := model.Validate(spec, r.Set, r.Options)
	if !res.Valid() {
		return nil, &model.RenderPreconditionError{Service: spec.Name, Violations: res.Blocking()}
	}

	labels := r.commonLabels(spec)
	var objs []runtime.Object

	switch spec.Workload {
	case model.WorkloadOneShot:
		job, err := r.renderJob(spec, labels)
		if err != nil {
			return nil, err
		}
		objs = append(objs, job)
	default:
		objs = append(objs, r.renderDeployment(spec, labels))
	}

	if spec.ExposedPort != 0 || spec.Ingress != nil {
		objs = append(objs, r.renderService(spec, labels))
	}
	if spec.Scaling != nil {
		objs = append(objs, r.renderHPA(spec, labels))
	}
	if spec.Ingress != nil {
		objs = append(objs, r.renderIngress(spec, labels))
	}
	return objs, nil
}

func (r *Renderer) renderContainer(spec *model.ServiceSpec) corev1.Container {
	ctn := corev1.Container{
		Name:    spec.Name,
		Image:   spec.Image.String(),
		Command: spec.Command,
		Args:    spec.Args,
	}
	if spec.Image.PullPolicy != "" {
		ctn.ImagePullPolicy = corev1.PullPolicy(spec.Image.PullPolicy)
	}
	if spec.ContainerPort != 0 {
		ctn.Ports = []corev1.ContainerPort{{ContainerPort: int32(spec.ContainerPort)}}
	}
	ctn.Env = r.renderEnv(spec)
	ctn.Resources = renderResources(spec.Resources)
	if hc := spec.HealthCheck; hc != nil {
		probe := r.renderProbe(hc)
		ctn.LivenessProbe = probe
		ctn.ReadinessProbe = probe.DeepCopy()
	}
	return ctn
}

// renderEnv emits environment bindings that reference secret/config name/key
// pairs. Values are never inlined. Declared order is preserved: the refs form
// an ordered set in the model.
func (r *Renderer) renderEnv(spec *model.ServiceSpec) []corev1.EnvVar {
	var env []corev1.EnvVar
	for _, ref := range spec.SecretRefs {
		env = append(env, corev1.EnvVar{
			Name: ref.EnvVar,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: ref.SecretName},
					Key:                  ref.SecretKey,
				},
			},
		})
	}
	for _, ref := range spec.ConfigRefs {
		env = append(env, corev1.EnvVar{
			Name: ref.EnvVar,
			ValueFrom: &corev1.EnvVarSource{
				ConfigMapKeyRef: &corev1.ConfigMapKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: ref.ConfigName},
					Key:                  ref.ConfigKey,
				},
			},
		})
	}
	return env
}

func (r *Renderer) renderProbe(hc *model.HealthCheck) *corev1.Probe {
	t := r.Set.Tunables
	probe := &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path: hc.Path,
				Port: intstr.FromInt(hc.Port),
			},
		},
		InitialDelaySeconds: orDefault(hc.InitialDelaySeconds, t.ProbeInitialDelaySeconds),
		PeriodSeconds:       orDefault(hc.PeriodSeconds, t.ProbePeriodSeconds),
		TimeoutSeconds:      orDefault(hc.TimeoutSeconds, t.ProbeTimeoutSeconds),
	}
	return probe
}

func renderResources(res *model.Resources) corev1.ResourceRequirements {
	var rr corev1.ResourceRequirements
	if res.Empty() {
		return rr
	}
	requests := corev1.ResourceList{}
	limits := corev1.ResourceList{}
	if res.RequestsCPU != nil {
		requests[corev1.ResourceCPU] = *res.RequestsCPU
	}
	if res.RequestsMemory != nil {
		requests[corev1.ResourceMemory] = *res.RequestsMemory
	}
	if res.LimitsCPU != nil {
		limits[corev1.ResourceCPU] = *res.LimitsCPU
	}
	if res.LimitsMemory != nil {
		limits[corev1.ResourceMemory] = *res.LimitsMemory
	}
	if len(requests) > 0 {
		rr.Requests = requests
	}
	if len(limits) > 0 {
		rr.Limits = limits
	}
	return rr
}

func (r *Renderer) renderDeployment(spec *model.ServiceSpec, labels map[string]string) *appsv1.Deployment {
	replicas := r.Set.Tunables.Replicas
	if spec.Scaling != nil {
		replicas = spec.Scaling.MinReplicas
	}
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: r.objectMeta(spec.Name, labels),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(replicas),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": spec.Name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{r.renderContainer(spec)},
				},
			},
		},
	}
}

// renderJob emits a run-to-completion resource: no replica reconciliation,
// explicit bounded retry count, restart only on failure via a fresh pod.
// A job with no invocation command is refused outright.
func (r *Renderer) renderJob(spec *model.ServiceSpec, labels map[string]string) (*batchv1.Job, error) {
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("service %q: refusing to emit a job with no command", spec.Name)
	}
	retry := r.Set.Tunables.RetryLimit
	if spec.RetryLimit != nil {
		retry = *spec.RetryLimit
	}
	return &batchv1.Job{
		TypeMeta:   metav1.TypeMeta{APIVersion: "batch/v1", Kind: "Job"},
		ObjectMeta: r.objectMeta(spec.Name, labels),
		Spec: batchv1.JobSpec{
			BackoffLimit: ptr.To(retry),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers:    []corev1.Container{r.renderContainer(spec)},
				},
			},
		},
	}, nil
}

// servicePort returns the port clients use to reach the service. Without an
// exposedPort the container port is served directly; the translation stays
// explicit either way.
func servicePort(spec *model.ServiceSpec) int {
	if spec.ExposedPort != 0 {
		return spec.ExposedPort
	}
	return spec.ContainerPort
}

// renderService emits the network-exposure resource. The exposed-to-container
// port translation is always explicit; targetPort is set even when the two
// ports happen to be equal.
func (r *Renderer) renderService(spec *model.ServiceSpec, labels map[string]string) *corev1.Service {
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: r.objectMeta(spec.Name, labels),
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": spec.Name},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       int32(servicePort(spec)),
				TargetPort: intstr.FromInt(spec.ContainerPort),
			}},
		},
	}
}

// renderHPA emits the horizontal-scaling resource bound to the workload by name.
func (r *Renderer) renderHPA(spec *model.ServiceSpec, labels map[string]string) *autoscalingv2.HorizontalPodAutoscaler {
	sc := spec.Scaling
	return &autoscalingv2.HorizontalPodAutoscaler{
		TypeMeta:   metav1.TypeMeta{APIVersion: "autoscaling/v2", Kind: "HorizontalPodAutoscaler"},
		ObjectMeta: r.objectMeta(spec.Name, labels),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       "Deployment",
				Name:       spec.Name,
			},
			MinReplicas: ptr.To(sc.MinReplicas),
			MaxReplicas: sc.MaxReplicas,
			Metrics: []autoscalingv2.MetricSpec{{
				Type: autoscalingv2.ResourceMetricSourceType,
				Resource: &autoscalingv2.ResourceMetricSource{
					Name: corev1.ResourceCPU,
					Target: autoscalingv2.MetricTarget{
						Type:               autoscalingv2.UtilizationMetricType,
						AverageUtilization: ptr.To(sc.TargetCPUPercent),
					},
				},
			}},
		},
	}
}

// renderIngress emits the routing resource bound to the network-exposure
// resource, with TLS material referenced by name only.
func (r *Renderer) renderIngress(spec *model.ServiceSpec, labels map[string]string) *netv1.Ingress {
	ing := spec.Ingress
	obj := &netv1.Ingress{
		TypeMeta:   metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
		ObjectMeta: r.objectMeta(spec.Name, labels),
		Spec: netv1.IngressSpec{
			Rules: []netv1.IngressRule{{
				Host: ing.Host,
				IngressRuleValue: netv1.IngressRuleValue{
					HTTP: &netv1.HTTPIngressRuleValue{
						Paths: []netv1.HTTPIngressPath{{
							Path:     ing.PathPrefix,
							PathType: ptr.To(netv1.PathTypePrefix),
							Backend: netv1.IngressBackend{
								Service: &netv1.IngressServiceBackend{
									Name: spec.Name,
									Port: netv1.ServiceBackendPort{Number: int32(servicePort(spec))},
								},
							},
						}},
					},
				},
			}},
		},
	}
	if ic := r.Set.Tunables.IngressClass; ic != "" {
		obj.Spec.IngressClassName = ptr.To(ic)
	}
	if ing.TLSSecretName != "" {
		obj.Spec.TLS = []netv1.IngressTLS{{Hosts: []string{ing.Host}, SecretName: ing.TLSSecretName}}
	}
	return obj
}

func (r *Renderer) objectMeta(name string, labels map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: r.Set.Namespace,
		Labels:    sortedLabelCopy(labels),
	}
}

// sortedLabelCopy detaches the shared label map from each object so later
// mutation of one object cannot leak into another.
func sortedLabelCopy(labels map[string]string) map[string]string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(labels))
	for _, k := range keys {
		out[k] = labels[k]
	}
	return out
}

func orDefault(v, def int32) int32 {
	if v != 0 {
		return v
	}
	return def
}
