package reldeccfg

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/reldec/reldec/domain/model"
)

// ToModel converts the configuration to the domain ReleaseSet plus the
// validator options derived from it. The configuration must have passed
// Validate; quantity parsing failures still surface as ConfigurationError.
func (r *Root) ToModel() (*model.ReleaseSet, *model.ValidateOptions, error) {
	set := &model.ReleaseSet{
		Name:      r.Release.Name,
		Namespace: r.Release.Namespace,
		Tunables:  r.Defaults.toTunables(),
	}

	for _, b := range r.Secrets {
		set.Secrets = append(set.Secrets, model.SharedBundle{Name: b.Name, Keys: append([]string(nil), b.Keys...)})
	}
	for _, b := range r.Configs {
		set.Configs = append(set.Configs, model.SharedBundle{Name: b.Name, Keys: append([]string(nil), b.Keys...)})
	}

	for i := range r.Services {
		spec, err := r.Services[i].toModel(fmt.Sprintf("services[%d]", i))
		if err != nil {
			return nil, nil, err
		}
		set.Services = append(set.Services, *spec)
	}

	opts := model.DefaultValidateOptions()
	opts.PlaceholderImages = append(opts.PlaceholderImages, r.Defaults.ImageDenylist...)
	return set, opts, nil
}

func (d *Defaults) toTunables() model.Tunables {
	t := model.DefaultTunables()
	if d.RetryLimit != nil {
		t.RetryLimit = *d.RetryLimit
	}
	if d.Replicas != nil {
		t.Replicas = *d.Replicas
	}
	if d.ProbeInitialDelay != nil {
		t.ProbeInitialDelaySeconds = *d.ProbeInitialDelay
	}
	if d.ProbePeriod != nil {
		t.ProbePeriodSeconds = *d.ProbePeriod
	}
	if d.ProbeTimeout != nil {
		t.ProbeTimeoutSeconds = *d.ProbeTimeout
	}
	t.IngressClass = d.IngressClass
	return t
}

func (s *Service) toModel(field string) (*model.ServiceSpec, error) {
	spec := &model.ServiceSpec{
		Name:          s.Name,
		Workload:      workloadKind(s.Workload),
		Image:         model.ImageRef{Repository: s.Image.Repository, Tag: s.Image.Tag, PullPolicy: s.Image.PullPolicy},
		Command:       append([]string(nil), s.Command...),
		Args:          append([]string(nil), s.Args...),
		ContainerPort: s.ContainerPort,
		ExposedPort:   s.ExposedPort,
		RetryLimit:    s.RetryLimit,
	}

	if hc := s.HealthCheck; hc != nil {
		spec.HealthCheck = &model.HealthCheck{
			Path:                hc.Path,
			Port:                hc.Port,
			InitialDelaySeconds: deref(hc.InitialDelay),
			PeriodSeconds:       deref(hc.Period),
			TimeoutSeconds:      deref(hc.Timeout),
		}
	}

	if res := s.Resources; res != nil {
		m := &model.Resources{}
		var err error
		if m.RequestsCPU, err = parseQuantity(res.Requests.CPU, field+".resources.requests.cpu"); err != nil {
			return nil, err
		}
		if m.RequestsMemory, err = parseQuantity(res.Requests.Memory, field+".resources.requests.memory"); err != nil {
			return nil, err
		}
		if m.LimitsCPU, err = parseQuantity(res.Limits.CPU, field+".resources.limits.cpu"); err != nil {
			return nil, err
		}
		if m.LimitsMemory, err = parseQuantity(res.Limits.Memory, field+".resources.limits.memory"); err != nil {
			return nil, err
		}
		spec.Resources = m
	}

	for _, e := range s.SecretEnv {
		spec.SecretRefs = append(spec.SecretRefs, model.SecretRef{EnvVar: e.Env, SecretName: e.Secret, SecretKey: e.Key})
	}
	for _, e := range s.ConfigEnv {
		spec.ConfigRefs = append(spec.ConfigRefs, model.ConfigRef{EnvVar: e.Env, ConfigName: e.Config, ConfigKey: e.Key})
	}

	if sc := s.Scaling; sc != nil {
		spec.Scaling = &model.Scaling{MinReplicas: sc.Min, MaxReplicas: sc.Max, TargetCPUPercent: sc.TargetCPU}
	}
	if ing := s.Ingress; ing != nil {
		spec.Ingress = &model.Ingress{Host: ing.Host, PathPrefix: ing.PathPrefix, TLSSecretName: ing.TLSSecret}
	}
	return spec, nil
}

func workloadKind(s string) model.WorkloadKind {
	switch s {
	case WorkloadOneShot:
		return model.WorkloadOneShot
	case WorkloadLongRunning:
		return model.WorkloadLongRunning
	default:
		return model.WorkloadKind(s)
	}
}

func parseQuantity(s, field string) (*resource.Quantity, error) {
	if s == "" {
		return nil, nil
	}
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return nil, &ConfigurationError{Field: field, Message: fmt.Sprintf("invalid quantity %q", s), Err: err}
	}
	return &q, nil
}

func deref(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
