// Package reldeccfg defines the configuration schema (structs) for release.yml.
// This package is intended for YAML -> struct deserialization; loading helpers,
// structural validation and domain-model conversion live in separate files.
package reldeccfg

// Root is the root structure of release.yml.
type Root struct {
	Version  string    `yaml:"version"`
	Release  Release   `yaml:"release"`
	Defaults Defaults  `yaml:"defaults,omitempty"`
	Secrets  []Bundle  `yaml:"secrets,omitempty"`
	Configs  []Bundle  `yaml:"configs,omitempty"`
	Services []Service `yaml:"services"`
}

// Release names the release and the optional namespace its objects live in.
type Release struct {
	Name      string `yaml:"name"` // RFC1123-compliant DNS label
	Namespace string `yaml:"namespace,omitempty"`
}

// Defaults are release-wide rendering defaults. Unset fields fall back to
// built-in values; nothing here is hardcoded at render call sites.
type Defaults struct {
	RetryLimit        *int32   `yaml:"retry_limit,omitempty"`
	Replicas          *int32   `yaml:"replicas,omitempty"`
	ProbeInitialDelay *int32   `yaml:"probe_initial_delay,omitempty"`
	ProbePeriod       *int32   `yaml:"probe_period,omitempty"`
	ProbeTimeout      *int32   `yaml:"probe_timeout,omitempty"`
	IngressClass      string   `yaml:"ingress_class,omitempty"`
	ImageDenylist     []string `yaml:"image_denylist,omitempty"` // extends the built-in placeholder list
}

// Bundle declares a shared secret or config bundle: a name and its keys.
// Values are never part of the configuration document.
type Bundle struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

// Service describes one deployable unit.
type Service struct {
	Name          string       `yaml:"name"`
	Workload      string       `yaml:"workload"` // "long-running" | "one-shot"
	Image         Image        `yaml:"image"`
	Command       []string     `yaml:"command,omitempty"`
	Args          []string     `yaml:"args,omitempty"`
	ContainerPort int          `yaml:"container_port,omitempty"`
	ExposedPort   int          `yaml:"exposed_port,omitempty"`
	RetryLimit    *int32       `yaml:"retry_limit,omitempty"`
	HealthCheck   *HealthCheck `yaml:"health_check,omitempty"`
	Resources     *Resources   `yaml:"resources,omitempty"`
	SecretEnv     []SecretEnv  `yaml:"secret_env,omitempty"`
	ConfigEnv     []ConfigEnv  `yaml:"config_env,omitempty"`
	Scaling       *Scaling     `yaml:"scaling,omitempty"`
	Ingress       *Ingress     `yaml:"ingress,omitempty"`
}

// Image references a container image; values are name/tag references only.
type Image struct {
	Repository string `yaml:"repository"`
	Tag        string `yaml:"tag,omitempty"`
	PullPolicy string `yaml:"pull_policy,omitempty"`
}

// HealthCheck declares an HTTP probe. Unset timings use release defaults.
type HealthCheck struct {
	Path         string `yaml:"path"`
	Port         int    `yaml:"port"`
	InitialDelay *int32 `yaml:"initial_delay,omitempty"`
	Period       *int32 `yaml:"period,omitempty"`
	Timeout      *int32 `yaml:"timeout,omitempty"`
}

// Resources holds requests/limits as Kubernetes quantity strings.
type Resources struct {
	Requests ResourceList `yaml:"requests,omitempty"`
	Limits   ResourceList `yaml:"limits,omitempty"`
}

// ResourceList holds per-dimension quantity strings (e.g. "100m", "128Mi").
type ResourceList struct {
	CPU    string `yaml:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// SecretEnv binds an environment variable to a shared secret key.
type SecretEnv struct {
	Env    string `yaml:"env"`
	Secret string `yaml:"secret"`
	Key    string `yaml:"key"`
}

// ConfigEnv binds an environment variable to a shared config key.
type ConfigEnv struct {
	Env    string `yaml:"env"`
	Config string `yaml:"config"`
	Key    string `yaml:"key"`
}

// Scaling declares horizontal scaling bounds.
type Scaling struct {
	Min       int32 `yaml:"min"`
	Max       int32 `yaml:"max"`
	TargetCPU int32 `yaml:"target_cpu"`
}

// Ingress declares public HTTP routing.
type Ingress struct {
	Host       string `yaml:"host"`
	PathPrefix string `yaml:"path_prefix"`
	TLSSecret  string `yaml:"tls_secret,omitempty"`
}
