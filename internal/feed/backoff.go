package feed

import "time"

const (
	reconnectBase = 1 * time.Second
	reconnectMax  = 60 * time.Second
)

// reconnectDelay returns the exponential backoff for a given retry count:
// base * 2^retry, capped at reconnectMax.
func reconnectDelay(retry int) time.Duration {
	if retry < 0 {
		return reconnectBase
	}
	// 2^30 seconds already far exceeds the cap.
	if retry > 30 {
		return reconnectMax
	}
	d := reconnectBase * time.Duration(1<<retry)
	if d > reconnectMax {
		return reconnectMax
	}
	return d
}
