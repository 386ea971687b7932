package feed

import "time"

// TTL ladder: the closer the nearest relevant match, the fresher the cached
// payload must be. Values above the floor trade staleness for API budget.
const (
	ttlGoldenHour  = 2 * time.Minute  // < 1h out: team news moves prices
	ttlApproaching = 10 * time.Minute // 1-3h out
	ttlMaintenance = 30 * time.Minute // 3-12h out
	ttlDeepSleep   = time.Hour        // > 12h out
)

// scheduleFallback is assumed when no relevant start time is known but open
// rows exist for the sport: refresh as if a match were two hours away.
const scheduleFallback = 2 * time.Hour

// TTLFor maps the time to the nearest relevant match onto a cache TTL.
// live reports that a relevant match is inside its live window, which pins
// the TTL to the floor; the floor is a hard lower bound regardless of
// urgency, so external call volume stays bounded even fully in-play.
func TTLFor(nearest time.Duration, live bool, floor time.Duration) time.Duration {
	var ttl time.Duration
	switch {
	case live:
		ttl = floor
	case nearest < time.Hour:
		ttl = ttlGoldenHour
	case nearest < 3*time.Hour:
		ttl = ttlApproaching
	case nearest < 12*time.Hour:
		ttl = ttlMaintenance
	default:
		ttl = ttlDeepSleep
	}
	if ttl < floor {
		ttl = floor
	}
	return ttl
}

// Nearest reduces a set of relevant start times to the proximity inputs for
// TTLFor. A start inside (now-inPlayWindow, now] counts as live; starts
// further in the past are spent and ignored. ok is false when no relevant
// start remains.
func Nearest(starts []time.Time, now time.Time, inPlayWindow time.Duration) (nearest time.Duration, live bool, ok bool) {
	for _, st := range starts {
		if st.IsZero() {
			continue
		}
		d := st.Sub(now)
		if d <= 0 {
			if -d <= inPlayWindow {
				return 0, true, true
			}
			continue
		}
		if !ok || d < nearest {
			nearest, ok = d, true
		}
	}
	return nearest, false, ok
}
