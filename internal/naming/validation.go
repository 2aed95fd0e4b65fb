package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// IsDNS1123Label reports whether value is a valid DNS-1123 label.
func IsDNS1123Label(value string) bool {
	return len(utilvalidation.IsDNS1123Label(value)) == 0
}

// ValidateServiceName returns an error when name is not usable as a resource
// name for a deployable service.
func ValidateServiceName(name string) error {
	if msgs := utilvalidation.IsDNS1123Label(name); len(msgs) > 0 {
		return fmt.Errorf("name %q: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}
