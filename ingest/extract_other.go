//go:build !darwin && !windows

package ingest

// bsdtar reads ZIP archives; GNU tar does not, so it is not tried.
var fallbackTools = []archiveTool{{
	name: "bsdtar",
	args: func(archive, dest string) []string { return []string{"-xf", archive, "-C", dest} },
}}
