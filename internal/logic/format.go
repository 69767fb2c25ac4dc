package logic

import "fmt"

// FormatDrive renders whole seconds as H:MM:SS, or H:MM when compact.
// Negative input renders as zero.
func FormatDrive(seconds int, compact bool) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds / 60 % 60
	if compact {
		return fmt.Sprintf("%d:%02d", h, m)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, seconds%60)
}

// FormatRest renders whole seconds as M:SS, or M when compact.
// Minutes are not wrapped at the hour. Negative input renders as zero.
func FormatRest(seconds int, compact bool) string {
	if seconds < 0 {
		seconds = 0
	}
	m := seconds / 60
	if compact {
		return fmt.Sprintf("%d", m)
	}
	return fmt.Sprintf("%d:%02d", m, seconds%60)
}
