package round

import "time"

// UTCDay converts a time to its UTC day number, the unit tournaments use for
// their start/end window.
func UTCDay(t time.Time) int64 {
	return t.UTC().Unix() / (24 * 60 * 60)
}
