package progression

import (
	"fmt"
	"time"
)

// ResolveLocation loads the IANA location. On failure it still returns UTC
// together with an error wrapping ErrTimezoneResolution, so callers can log
// the problem and continue.
func ResolveLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, fmt.Errorf("%w: empty timezone", ErrTimezoneResolution)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("%w %q: %v", ErrTimezoneResolution, name, err)
	}

	return loc, nil
}
