package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Wait command defaults.
const (
	DefaultNamespace = "openshift-gitops"
	DefaultInterval  = 10 * time.Second
	DefaultTimeout   = 600 * time.Second
	DefaultPlugin    = "flightctl-plugin"
)

// WaitSettings holds the wait command values that can come from the
// environment. Flags override them.
type WaitSettings struct {
	Namespace string
	Interval  time.Duration
	Timeout   time.Duration
}

// LoadWaitSettings loads wait settings from environment variables.
// If a variable is not set or invalid, the default value is used.
//
// Environment Variables:
//   - NAMESPACE (default: openshift-gitops)
//   - INTERVAL (default: 10s)
//   - TIMEOUT (default: 600s)
//
// INTERVAL and TIMEOUT accept a plain number of seconds ("30") or a Go
// duration ("30s", "2m").
func LoadWaitSettings() WaitSettings {
	return WaitSettings{
		Namespace: parseString("NAMESPACE", DefaultNamespace),
		Interval:  parseSeconds("INTERVAL", DefaultInterval),
		Timeout:   parseSeconds("TIMEOUT", DefaultTimeout),
	}
}

func parseString(envVar, defaultVal string) string {
	val := strings.TrimSpace(os.Getenv(envVar))
	if val == "" {
		return defaultVal
	}
	return val
}

// parseSeconds parses a positive duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseSeconds(envVar string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(envVar))
	if val == "" {
		return defaultVal
	}

	d, err := ParseSeconds(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// ParseSeconds parses a plain integer as seconds, or else a Go duration.
func ParseSeconds(val string) (time.Duration, error) {
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(val)
}
