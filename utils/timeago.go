package utils

import (
	"fmt"
	"time"
)

// TimeAgo renders the age of a timestamp relative to now, e.g. "just now",
// "1 minute ago", "3 hours ago", "2 weeks ago".
func TimeAgo(t, now time.Time) string {
	seconds := now.Sub(t).Seconds()

	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(int(seconds/60), "minute")
	case seconds < 86400:
		return plural(int(seconds/3600), "hour")
	case seconds < 604800:
		return plural(int(seconds/86400), "day")
	default:
		return plural(int(seconds/604800), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
