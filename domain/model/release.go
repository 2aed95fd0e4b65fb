package model

import (
	"time"

	"k8s.io/apimachinery/pkg/api/resource"
)

// WorkloadKind selects the lifecycle of a deployable unit.
type WorkloadKind string

const (
	// WorkloadLongRunning is a continuously reconciled, replica-managed workload.
	WorkloadLongRunning WorkloadKind = "LongRunning"
	// WorkloadOneShot is a run-to-completion workload with a bounded retry count.
	WorkloadOneShot WorkloadKind = "OneShot"
)

// ImageRef identifies a container image by reference only.
type ImageRef struct {
	Repository string
	Tag        string
	PullPolicy string // "", "Always", "IfNotPresent", "Never"
}

// String returns the image reference in repository:tag form.
func (r ImageRef) String() string {
	if r.Tag == "" {
		return r.Repository
	}
	return r.Repository + ":" + r.Tag
}

// HealthCheck declares an HTTP probe against the container port.
// Zero timing fields fall back to release tunables at render time.
type HealthCheck struct {
	Path                string
	Port                int
	InitialDelaySeconds int32
	PeriodSeconds       int32
	TimeoutSeconds      int32
}

// Resources holds per-dimension requests and limits. Nil pointers mean unset.
type Resources struct {
	RequestsCPU    *resource.Quantity
	RequestsMemory *resource.Quantity
	LimitsCPU      *resource.Quantity
	LimitsMemory   *resource.Quantity
}

// Empty reports whether no request or limit is set in any dimension.
func (r *Resources) Empty() bool {
	if r == nil {
		return true
	}
	return r.RequestsCPU == nil && r.RequestsMemory == nil && r.LimitsCPU == nil && r.LimitsMemory == nil
}

// SecretRef binds an environment variable to a key of a shared secret bundle.
// Values are never embedded; only the name/key pair is carried.
type SecretRef struct {
	EnvVar     string
	SecretName string
	SecretKey  string
}

// ConfigRef binds an environment variable to a key of a shared config bundle.
type ConfigRef struct {
	EnvVar     string
	ConfigName string
	ConfigKey  string
}

// Scaling declares horizontal scaling bounds for a LongRunning workload.
type Scaling struct {
	MinReplicas      int32
	MaxReplicas      int32
	TargetCPUPercent int32
}

// Ingress declares public HTTP routing for a service.
type Ingress struct {
	Host          string
	PathPrefix    string
	TLSSecretName string // TLS material referenced by name only
}

// ServiceSpec is the typed configuration of one deployable unit.
// It is constructed once per release, validated before rendering, and
// never mutated afterwards.
type ServiceSpec struct {
	Name          string
	Workload      WorkloadKind
	Image         ImageRef
	Command       []string
	Args          []string
	ContainerPort int // port the process listens on; 0 = none
	ExposedPort   int // port clients use; 0 = not exposed
	RetryLimit    *int32
	HealthCheck   *HealthCheck
	Resources     *Resources
	SecretRefs    []SecretRef
	ConfigRefs    []ConfigRef
	Scaling       *Scaling
	Ingress       *Ingress
}

// SharedBundle declares a named secret or config bundle and the keys it holds.
// Only the declaration is carried here; values live outside the compiler.
type SharedBundle struct {
	Name string
	Keys []string
}

// HasKey reports whether the bundle declares the given key.
func (b *SharedBundle) HasKey(key string) bool {
	for _, k := range b.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Tunables are release-wide rendering defaults. Retry counts and probe
// timings are deployment-site decisions, so they are configuration inputs
// rather than constants.
type Tunables struct {
	RetryLimit               int32
	Replicas                 int32
	ProbeInitialDelaySeconds int32
	ProbePeriodSeconds       int32
	ProbeTimeoutSeconds      int32
	IngressClass             string
}

// DefaultTunables returns the built-in rendering defaults.
func DefaultTunables() Tunables {
	return Tunables{
		RetryLimit:               3,
		Replicas:                 1,
		ProbeInitialDelaySeconds: 5,
		ProbePeriodSeconds:       10,
		ProbeTimeoutSeconds:      3,
	}
}

// ReleaseSet is the full collection of services deployed together plus the
// shared secret/config declarations they may reference.
type ReleaseSet struct {
	Name      string
	Namespace string // optional; applied to all namespaced objects
	Tunables  Tunables
	Secrets   []SharedBundle
	Configs   []SharedBundle
	Services  []ServiceSpec
}

// SecretBundle returns the shared secret bundle with the given name, or nil.
func (s *ReleaseSet) SecretBundle(name string) *SharedBundle {
	for i := range s.Secrets {
		if s.Secrets[i].Name == name {
			return &s.Secrets[i]
		}
	}
	return nil
}

// ConfigBundle returns the shared config bundle with the given name, or nil.
func (s *ReleaseSet) ConfigBundle(name string) *SharedBundle {
	for i := range s.Configs {
		if s.Configs[i].Name == name {
			return &s.Configs[i]
		}
	}
	return nil
}

// Service returns the service with the given name, or nil.
func (s *ReleaseSet) Service(name string) *ServiceSpec {
	for i := range s.Services {
		if s.Services[i].Name == name {
			return &s.Services[i]
		}
	}
	return nil
}

// ReleaseSnapshot is a persisted rendering of a ReleaseSet, kept so later
// renderings can be diffed against it.
type ReleaseSnapshot struct {
	ID        string
	Release   string
	Manifest  string
	CreatedAt time.Time
}
