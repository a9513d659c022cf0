//go:build !windows && !darwin && !linux

package kiosk

func candidates() []string {
	return []string{"chromium", "chromium-browser", "google-chrome"}
}
