package commands

import (
	"fmt"
	"time"

	"github.com/windguard/edgeprov/internal/config"
)

// parseDurationFlag accepts seconds ("30") or a Go duration ("30s").
func parseDurationFlag(name, val string) (time.Duration, error) {
	d, err := config.ParseSeconds(val)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --%s %q: must be positive", name, val)
	}
	return d, nil
}
