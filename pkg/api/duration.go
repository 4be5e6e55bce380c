package api

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as its largest two non-zero units:
// days and hours, hours and minutes, minutes and seconds, or seconds alone
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)

	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days, %d hours", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%d minutes, %d seconds", minutes, seconds)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}
