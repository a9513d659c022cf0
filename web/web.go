// Package web embeds the launcher frontend: the coverflow shell, the OSD and the gamepad
// client with its remapping UI.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html static
var files embed.FS

// FS returns the frontend rooted at the directory holding index.html.
func FS() fs.FS { return files }
