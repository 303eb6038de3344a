package prize

import "time"

// Award carries the timestamps stamped onto a freshly won prize.
// RedeemedAt starts nil and, once set by redemption, never changes.
type Award struct {
	WonAt     time.Time
	ExpiresAt time.Time
}

// Stamp produces the award timestamps for a prize won at now:
// the expiry is exactly ExpiryWindow after the win.
func Stamp(now time.Time) Award {
	return Award{WonAt: now, ExpiresAt: now.Add(ExpiryWindow)}
}
