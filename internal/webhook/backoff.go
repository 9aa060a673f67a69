package webhook

import "time"

// NextRetry maps the attempt count before the failed delivery to the
// next wake-up time. The schedule is fixed: 30s, 2m, 10m, 1h, then the
// retry budget is spent and ok is false.
func NextRetry(attempts int) (time.Time, bool) {
	var delay time.Duration
	switch attempts {
	case 0:
		delay = 30 * time.Second
	case 1:
		delay = 2 * time.Minute
	case 2:
		delay = 10 * time.Minute
	case 3:
		delay = time.Hour
	default:
		return time.Time{}, false
	}
	return time.Now().UTC().Add(delay), true
}
