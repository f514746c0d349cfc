package service

import "time"

// Clock supplies the current time. Production uses time.Now; tests inject
// a manual clock to drive expiry, deadline and pickup transitions.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
