package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Severity classifies a validation violation.
type Severity string

const (
	// SeverityBlocking aborts rendering and assembly.
	SeverityBlocking Severity = "Blocking"
	// SeverityWarning is reported alongside successful output.
	SeverityWarning Severity = "Warning"
)

// RuleID is a stable identifier for a validation rule, referenced by tests
// and calling tooling instead of prose.
type RuleID string

const (
	RuleOneShotScaling     RuleID = "R1"  // OneShot forbids scaling, retry must be bounded
	RulePlaceholderImage   RuleID = "R2"  // image repository empty or on placeholder denylist
	RuleProbePortMismatch  RuleID = "R3"  // healthCheck.port must equal containerPort
	RuleProbeRootPath      RuleID = "R4"  // healthCheck.path "/" is probably wrong
	RuleDanglingSecretRef  RuleID = "R5"  // secret reference does not resolve
	RuleRequestOverLimit   RuleID = "R6"  // resource request exceeds limit
	RuleIngressPrereqs     RuleID = "R7"  // ingress requires LongRunning and a healthCheck
	RuleNoResources        RuleID = "R8"  // no requests or limits at all
	RuleServiceName        RuleID = "R9"  // name must be a DNS-1123 label
	RuleOneShotCommand     RuleID = "R10" // OneShot requires a non-empty command
	RuleDanglingConfigRef  RuleID = "R11" // config reference does not resolve
	RulePortRange          RuleID = "R12" // container/exposed port missing or out of range
	RuleIngressPathPrefix  RuleID = "R13" // ingress pathPrefix must start with "/"
	RuleServiceNameCollide RuleID = "R14" // duplicate service name within the release
	RuleScalingBounds      RuleID = "R15" // scaling bounds must satisfy 1 <= min <= max
	RuleWorkloadKind       RuleID = "R16" // workload kind must be a known value
)

// order returns the numeric rank of a rule for deterministic reporting.
func (id RuleID) order() int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(id), "R"))
	if err != nil {
		return 1 << 20
	}
	return n
}

// Violation is a single rule violation found in a ServiceSpec or ReleaseSet.
type Violation struct {
	Rule     RuleID
	Severity Severity
	Service  string
	Field    string
	Message  string
}

// String renders a violation as a single stable report line.
func (v Violation) String() string {
	return fmt.Sprintf("%s %s %s %s: %s", v.Rule, v.Severity, v.Service, v.Field, v.Message)
}

// ValidationResult is the outcome of validating one ServiceSpec.
// Violations are ordered by rule id, then field, for byte-identical reports.
type ValidationResult struct {
	Violations []Violation
}

// Valid reports whether the result contains no Blocking violations.
func (r *ValidationResult) Valid() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlocking {
			return false
		}
	}
	return true
}

// Blocking returns the Blocking violations in report order.
func (r *ValidationResult) Blocking() []Violation {
	return filterViolations(r.Violations, SeverityBlocking)
}

// Warnings returns the Warning violations in report order.
func (r *ValidationResult) Warnings() []Violation {
	return filterViolations(r.Violations, SeverityWarning)
}

func (r *ValidationResult) add(rule RuleID, sev Severity, service, field, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Rule:     rule,
		Severity: sev,
		Service:  service,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *ValidationResult) sort() {
	sortViolations(r.Violations)
}

// ValidationReport aggregates validation results for a whole ReleaseSet.
// Set-level violations come first, then per-service violations in service
// declaration order.
type ValidationReport struct {
	Violations []Violation
}

// Valid reports whether the report contains no Blocking violations.
func (r *ValidationReport) Valid() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlocking {
			return false
		}
	}
	return true
}

// Blocking returns the Blocking violations in report order.
func (r *ValidationReport) Blocking() []Violation {
	return filterViolations(r.Violations, SeverityBlocking)
}

// Warnings returns the Warning violations in report order.
func (r *ValidationReport) Warnings() []Violation {
	return filterViolations(r.Violations, SeverityWarning)
}

// ForService returns the violations recorded against the named service.
func (r *ValidationReport) ForService(name string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Service == name {
			out = append(out, v)
		}
	}
	return out
}

// String renders the report as one line per violation.
func (r *ValidationReport) String() string {
	var b strings.Builder
	for _, v := range r.Violations {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func filterViolations(vs []Violation, sev Severity) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if a, b := vs[i].Rule.order(), vs[j].Rule.order(); a != b {
			return a < b
		}
		if vs[i].Field != vs[j].Field {
			return vs[i].Field < vs[j].Field
		}
		return vs[i].Message < vs[j].Message
	})
}

// ValidateSet validates every service of a release plus the cross-service
// invariants (name uniqueness; secret/config resolution is already checked
// against the shared bundles by the per-service rules).
func ValidateSet(set *ReleaseSet, opts *ValidateOptions) *ValidationReport {
	report := &ValidationReport{}

	seen := map[string]int{}
	for i := range set.Services {
		name := set.Services[i].Name
		if first, dup := seen[name]; dup {
			report.Violations = append(report.Violations, Violation{
				Rule:     RuleServiceNameCollide,
				Severity: SeverityBlocking,
				Service:  name,
				Field:    "name",
				Message:  fmt.Sprintf("service name %q declared by both services[%d] and services[%d]", name, first, i),
			})
			continue
		}
		seen[name] = i
	}
	sortViolations(report.Violations)

	for i := range set.Services {
		res := Validate(&set.Services[i], set, opts)
		report.Violations = append(report.Violations, res.Violations...)
	}
	return report
}
