//go:build windows

package ingest

// tar.exe (bsdtar) has been bundled with Windows since 10 1803 and reads ZIP archives.
var fallbackTools = []archiveTool{{
	name: "tar",
	args: func(archive, dest string) []string { return []string{"-xf", archive, "-C", dest} },
}}
