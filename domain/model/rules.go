package model

import (
	"fmt"
	"strings"

	"github.com/reldec/reldec/internal/naming"
)

// defaultPlaceholderImages are repositories that indicate a copy-pasted or
// unfinished image reference rather than a deployable artifact.
var defaultPlaceholderImages = []string{
	"alpine",
	"base",
	"busybox",
	"changeme",
	"debian",
	"example",
	"placeholder",
	"scratch",
	"ubuntu",
}

// ValidateOptions carries validator policy that is configuration, not release
// data. A nil options value means DefaultValidateOptions.
type ValidateOptions struct {
	// PlaceholderImages is the denylist for image repositories (R2).
	PlaceholderImages []string
}

// DefaultValidateOptions returns the built-in validator policy.
func DefaultValidateOptions() *ValidateOptions {
	return &ValidateOptions{PlaceholderImages: defaultPlaceholderImages}
}

// Validate checks one ServiceSpec against the release context. It is pure:
// the spec and set are only read, and the violations of two runs over the
// same input are byte-identical (ordered by rule id, then field).
func Validate(spec *ServiceSpec, set *ReleaseSet, opts *ValidateOptions) *ValidationResult {
	if opts == nil {
		opts = DefaultValidateOptions()
	}
	res := &ValidationResult{}

	checkWorkload(res, spec)
	checkImage(res, spec, opts)
	checkPorts(res, spec)
	checkHealthCheck(res, spec)
	checkResources(res, spec)
	checkSecretRefs(res, spec, set)
	checkConfigRefs(res, spec, set)
	checkScaling(res, spec)
	checkIngress(res, spec)

	if !naming.IsDNS1123Label(spec.Name) {
		res.add(RuleServiceName, SeverityBlocking, spec.Name, "name",
			"service name %q is not a valid DNS-1123 label", spec.Name)
	}

	res.sort()
	return res
}

func checkWorkload(res *ValidationResult, spec *ServiceSpec) {
	switch spec.Workload {
	case WorkloadLongRunning, WorkloadOneShot:
	default:
		res.add(RuleWorkloadKind, SeverityBlocking, spec.Name, "workloadKind",
			"unknown workload kind %q", spec.Workload)
		return
	}
	if spec.Workload != WorkloadOneShot {
		return
	}
	if spec.Scaling != nil {
		res.add(RuleOneShotScaling, SeverityBlocking, spec.Name, "scaling",
			"one-shot workload must not declare scaling")
	}
	if spec.RetryLimit != nil && *spec.RetryLimit < 0 {
		res.add(RuleOneShotScaling, SeverityBlocking, spec.Name, "retryLimit",
			"retry limit %d is not a bounded retry count", *spec.RetryLimit)
	}
	if len(spec.Command) == 0 {
		res.add(RuleOneShotCommand, SeverityBlocking, spec.Name, "command",
			"one-shot workload requires a non-empty command")
	}
}

func checkImage(res *ValidationResult, spec *ServiceSpec, opts *ValidateOptions) {
	repo := strings.TrimSpace(spec.Image.Repository)
	if repo == "" {
		res.add(RulePlaceholderImage, SeverityBlocking, spec.Name, "image.repository",
			"image repository is empty")
		return
	}
	// Match both the full reference and its final path segment so that
	// "docker.io/library/ubuntu" is caught the same as "ubuntu".
	base := repo
	if i := strings.LastIndexByte(repo, '/'); i >= 0 {
		base = repo[i+1:]
	}
	for _, deny := range opts.PlaceholderImages {
		if repo == deny || base == deny {
			res.add(RulePlaceholderImage, SeverityBlocking, spec.Name, "image.repository",
				"image repository %q matches placeholder %q", repo, deny)
			return
		}
	}
}

func checkPorts(res *ValidationResult, spec *ServiceSpec) {
	if spec.ContainerPort != 0 && !validPort(spec.ContainerPort) {
		res.add(RulePortRange, SeverityBlocking, spec.Name, "containerPort",
			"container port %d out of range 1-65535", spec.ContainerPort)
	}
	if spec.ContainerPort == 0 && spec.Workload == WorkloadLongRunning {
		res.add(RulePortRange, SeverityBlocking, spec.Name, "containerPort",
			"long-running workload requires a container port")
	}
	if spec.ContainerPort == 0 && spec.HealthCheck != nil {
		res.add(RulePortRange, SeverityBlocking, spec.Name, "healthCheck",
			"health check requires a container port to probe")
	}
	if spec.ExposedPort != 0 {
		if !validPort(spec.ExposedPort) {
			res.add(RulePortRange, SeverityBlocking, spec.Name, "exposedPort",
				"exposed port %d out of range 1-65535", spec.ExposedPort)
		}
		if spec.ContainerPort == 0 {
			res.add(RulePortRange, SeverityBlocking, spec.Name, "exposedPort",
				"exposed port requires a container port to translate to")
		}
	}
}

func checkHealthCheck(res *ValidationResult, spec *ServiceSpec) {
	hc := spec.HealthCheck
	if hc == nil {
		return
	}
	if hc.Port != spec.ContainerPort {
		res.add(RuleProbePortMismatch, SeverityBlocking, spec.Name, "healthCheck.port",
			"health check port %d must equal container port %d", hc.Port, spec.ContainerPort)
	}
	if hc.Path == "/" {
		res.add(RuleProbeRootPath, SeverityWarning, spec.Name, "healthCheck.path",
			`health check path "/" is probably not a declared health route`)
	}
}

func checkResources(res *ValidationResult, spec *ServiceSpec) {
	r := spec.Resources
	if r.Empty() {
		res.add(RuleNoResources, SeverityWarning, spec.Name, "resources",
			"no resource requests or limits declared")
		return
	}
	if r.RequestsCPU != nil && r.LimitsCPU != nil && r.RequestsCPU.Cmp(*r.LimitsCPU) > 0 {
		res.add(RuleRequestOverLimit, SeverityBlocking, spec.Name, "resources.requests.cpu",
			"cpu request %s exceeds limit %s", r.RequestsCPU.String(), r.LimitsCPU.String())
	}
	if r.RequestsMemory != nil && r.LimitsMemory != nil && r.RequestsMemory.Cmp(*r.LimitsMemory) > 0 {
		res.add(RuleRequestOverLimit, SeverityBlocking, spec.Name, "resources.requests.memory",
			"memory request %s exceeds limit %s", r.RequestsMemory.String(), r.LimitsMemory.String())
	}
}

func checkSecretRefs(res *ValidationResult, spec *ServiceSpec, set *ReleaseSet) {
	for i, ref := range spec.SecretRefs {
		field := refField("secretRefs", i)
		if ref.EnvVar == "" {
			res.add(RuleDanglingSecretRef, SeverityBlocking, spec.Name, field,
				"secret reference has no environment variable name")
			continue
		}
		bundle := set.SecretBundle(ref.SecretName)
		if bundle == nil {
			res.add(RuleDanglingSecretRef, SeverityBlocking, spec.Name, field,
				"service %q references secret %q which is not declared in the release secret bundle",
				spec.Name, ref.SecretName)
			continue
		}
		if !bundle.HasKey(ref.SecretKey) {
			res.add(RuleDanglingSecretRef, SeverityBlocking, spec.Name, field,
				"service %q references key %q of secret %q, declared keys are %s",
				spec.Name, ref.SecretKey, ref.SecretName, strings.Join(bundle.Keys, ","))
		}
	}
}

func checkConfigRefs(res *ValidationResult, spec *ServiceSpec, set *ReleaseSet) {
	for i, ref := range spec.ConfigRefs {
		field := refField("configRefs", i)
		if ref.EnvVar == "" {
			res.add(RuleDanglingConfigRef, SeverityBlocking, spec.Name, field,
				"config reference has no environment variable name")
			continue
		}
		bundle := set.ConfigBundle(ref.ConfigName)
		if bundle == nil {
			res.add(RuleDanglingConfigRef, SeverityBlocking, spec.Name, field,
				"service %q references config %q which is not declared in the release config bundle",
				spec.Name, ref.ConfigName)
			continue
		}
		if !bundle.HasKey(ref.ConfigKey) {
			res.add(RuleDanglingConfigRef, SeverityBlocking, spec.Name, field,
				"service %q references key %q of config %q, declared keys are %s",
				spec.Name, ref.ConfigKey, ref.ConfigName, strings.Join(bundle.Keys, ","))
		}
	}
}

func checkScaling(res *ValidationResult, spec *ServiceSpec) {
	sc := spec.Scaling
	if sc == nil {
		return
	}
	// OneShot + scaling is already rejected by R1; bounds checks apply either way.
	if sc.MinReplicas < 1 {
		res.add(RuleScalingBounds, SeverityBlocking, spec.Name, "scaling.minReplicas",
			"minReplicas %d must be at least 1", sc.MinReplicas)
	}
	if sc.MaxReplicas < sc.MinReplicas {
		res.add(RuleScalingBounds, SeverityBlocking, spec.Name, "scaling.maxReplicas",
			"maxReplicas %d must be at least minReplicas %d", sc.MaxReplicas, sc.MinReplicas)
	}
}

func checkIngress(res *ValidationResult, spec *ServiceSpec) {
	ing := spec.Ingress
	if ing == nil {
		return
	}
	if spec.Workload != WorkloadLongRunning {
		res.add(RuleIngressPrereqs, SeverityBlocking, spec.Name, "ingress",
			"ingress is only allowed for long-running workloads")
	}
	if spec.HealthCheck == nil {
		res.add(RuleIngressPrereqs, SeverityBlocking, spec.Name, "ingress",
			"ingress requires a health check; no public routing to an unmonitored service")
	}
	if !strings.HasPrefix(ing.PathPrefix, "/") {
		res.add(RuleIngressPathPrefix, SeverityBlocking, spec.Name, "ingress.pathPrefix",
			"path prefix %q must begin with /", ing.PathPrefix)
	}
}

func validPort(p int) bool { return p >= 1 && p <= 65535 }

func refField(kind string, i int) string {
	return fmt.Sprintf("%s[%d]", kind, i)
}
