package server

import (
	"io"
	"net/http"
	"path"
	"strings"
)

// contentTypes covers what browser games ship; everything else is sniffed.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".mjs":   "text/javascript; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".json":  "application/json",
	".map":   "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".wasm":  "application/wasm",
	".mp3":   "audio/mpeg",
	".ogg":   "audio/ogg",
	".wav":   "audio/wav",
	".m4a":   "audio/mp4",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".txt":   "text/plain; charset=utf-8",
	".xml":   "application/xml",
	".atlas": "text/plain; charset=utf-8",
	".fnt":   "text/xml; charset=utf-8",
}

const defaultContentType = "application/octet-stream"

func extOf(name string) string {
	return strings.ToLower(path.Ext(name))
}

func isHTMLPath(name string) bool {
	ext := extOf(name)
	return ext == ".html" || ext == ".htm"
}

// contentType resolves the type of name by extension, then by sniffing head (up to 512
// bytes of the content), then falls back to an opaque binary type.
func contentType(name string, head []byte) string {
	if ct, ok := contentTypes[extOf(name)]; ok {
		return ct
	}
	if len(head) > 0 {
		ct := http.DetectContentType(head)
		if ct != defaultContentType {
			return ct
		}
	}
	return defaultContentType
}

// sniffContentType reads the first 512 bytes of rs for contentType and rewinds it.
func sniffContentType(name string, rs io.ReadSeeker) string {
	if ct, ok := contentTypes[extOf(name)]; ok {
		return ct
	}
	buf := make([]byte, 512)
	n, _ := io.ReadFull(rs, buf)
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return defaultContentType
	}
	return contentType(name, buf[:n])
}
