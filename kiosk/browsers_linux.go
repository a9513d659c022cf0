//go:build linux

package kiosk

func candidates() []string {
	return []string{
		"chromium",
		"chromium-browser",
		"google-chrome",
		"google-chrome-stable",
		"microsoft-edge",
		"brave-browser",
		"/snap/bin/chromium",
	}
}
