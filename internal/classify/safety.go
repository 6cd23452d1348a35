package classify

import (
	"fmt"
	"strings"
)

// SafetyPolicy is a named bundle of size and behavior thresholds that
// bounds how aggressively files are read. Policies are loaded once per run
// and immutable thereafter.
type SafetyPolicy struct {
	// Name identifies the preset ("default", "conservative", "performance").
	Name string

	// MaxFileSize is the largest file the policy admits, in bytes.
	MaxFileSize int64

	// AllowMmap permits memory mapping for admitted files. When false
	// every file is fully buffered through the streaming path.
	AllowMmap bool

	// AlwaysSearchOnly restricts the search to extensions in the built-in
	// always-search set, demoting conditional types.
	AlwaysSearchOnly bool
}

const (
	defaultMaxFileSize      = 100 << 20 // 100 MiB
	conservativeMaxFileSize = 10 << 20  // 10 MiB
	performanceMaxFileSize  = 500 << 20 // 500 MiB
)

// DefaultSafetyPolicy admits files up to 100 MiB and allows mapping.
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		Name:        "default",
		MaxFileSize: defaultMaxFileSize,
		AllowMmap:   true,
	}
}

// ConservativeSafetyPolicy caps files at 10 MiB, disables memory mapping,
// and restricts the search to the built-in always-search types.
func ConservativeSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		Name:             "conservative",
		MaxFileSize:      conservativeMaxFileSize,
		AllowMmap:        false,
		AlwaysSearchOnly: true,
	}
}

// PerformanceSafetyPolicy admits files up to 500 MiB and maps aggressively.
func PerformanceSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		Name:        "performance",
		MaxFileSize: performanceMaxFileSize,
		AllowMmap:   true,
	}
}

// ParseSafetyPolicy parses a --safety-policy flag value.
func ParseSafetyPolicy(s string) (SafetyPolicy, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return DefaultSafetyPolicy(), nil
	case "conservative":
		return ConservativeSafetyPolicy(), nil
	case "performance":
		return PerformanceSafetyPolicy(), nil
	default:
		return SafetyPolicy{}, fmt.Errorf("unknown safety policy %q", s)
	}
}
