//go:build windows

package kiosk

import (
	"os"
	"path/filepath"
)

func candidates() []string {
	var out []string
	for _, root := range []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)"), os.Getenv("LocalAppData")} {
		if root == "" {
			continue
		}
		out = append(out,
			filepath.Join(root, `Google\Chrome\Application\chrome.exe`),
			filepath.Join(root, `Microsoft\Edge\Application\msedge.exe`),
			filepath.Join(root, `Chromium\Application\chrome.exe`),
		)
	}
	return append(out, "chrome.exe", "msedge.exe")
}
