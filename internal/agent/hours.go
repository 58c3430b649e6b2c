package agent

import "time"

const (
	businessHourStart = 9
	businessHourEnd   = 18
)

// IsBusinessHours reports whether now falls on a weekday between 09:00 and
// 18:00 in now's location. Callers convert to the agent timezone first.
func IsBusinessHours(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := now.Hour()
	return h >= businessHourStart && h < businessHourEnd
}
