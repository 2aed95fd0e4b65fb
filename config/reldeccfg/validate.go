package reldeccfg

import (
	"fmt"

	"github.com/reldec/reldec/internal/naming"
)

// Workload kind strings accepted by the configuration surface.
const (
	WorkloadLongRunning = "long-running"
	WorkloadOneShot     = "one-shot"
)

// Validate performs structural validation on the configuration tree: shape
// problems a document can have regardless of release semantics. Business
// rules (R1..R16) are checked later against the domain model.
func (r *Root) Validate() error {
	if r.Version != "" && r.Version != "v1" {
		return configErr("", "version", "unsupported version %q, expected v1", r.Version)
	}
	if r.Release.Name == "" {
		return configErr("", "release.name", "release name is required")
	}
	if err := naming.ValidateServiceName(r.Release.Name); err != nil {
		return configErr("", "release.name", "%v", err)
	}
	if len(r.Services) == 0 {
		return configErr("", "services", "at least one service is required")
	}
	if err := validateBundles("secrets", r.Secrets); err != nil {
		return err
	}
	if err := validateBundles("configs", r.Configs); err != nil {
		return err
	}
	for i := range r.Services {
		if err := r.Services[i].validate(fmt.Sprintf("services[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateBundles(field string, bundles []Bundle) error {
	seen := make(map[string]struct{}, len(bundles))
	for i, b := range bundles {
		if b.Name == "" {
			return configErr("", fmt.Sprintf("%s[%d].name", field, i), "bundle name is required")
		}
		if _, dup := seen[b.Name]; dup {
			return configErr("", fmt.Sprintf("%s[%d].name", field, i), "duplicate bundle name %q", b.Name)
		}
		seen[b.Name] = struct{}{}
		if len(b.Keys) == 0 {
			return configErr("", fmt.Sprintf("%s[%d].keys", field, i), "bundle %q declares no keys", b.Name)
		}
		keySeen := make(map[string]struct{}, len(b.Keys))
		for j, k := range b.Keys {
			if k == "" {
				return configErr("", fmt.Sprintf("%s[%d].keys[%d]", field, i, j), "empty key in bundle %q", b.Name)
			}
			if _, dup := keySeen[k]; dup {
				return configErr("", fmt.Sprintf("%s[%d].keys[%d]", field, i, j), "duplicate key %q in bundle %q", k, b.Name)
			}
			keySeen[k] = struct{}{}
		}
	}
	return nil
}

func (s *Service) validate(field string) error {
	if s.Name == "" {
		return configErr("", field+".name", "service name is required")
	}
	switch s.Workload {
	case WorkloadLongRunning, WorkloadOneShot:
	case "":
		return configErr("", field+".workload", "workload kind is required (%s or %s)", WorkloadLongRunning, WorkloadOneShot)
	default:
		return configErr("", field+".workload", "unknown workload kind %q (expected %s or %s)", s.Workload, WorkloadLongRunning, WorkloadOneShot)
	}
	switch s.Image.PullPolicy {
	case "", "Always", "IfNotPresent", "Never":
	default:
		return configErr("", field+".image.pull_policy", "unknown pull policy %q", s.Image.PullPolicy)
	}
	return nil
}
