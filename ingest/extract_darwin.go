//go:build darwin

package ingest

// ditto ships with every macOS install and understands PKZip archives.
var fallbackTools = []archiveTool{{
	name: "ditto",
	args: func(archive, dest string) []string { return []string{"-x", "-k", archive, dest} },
}}
