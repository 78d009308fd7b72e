package directory

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionTypes covers files whose content alone is ambiguous
var extensionTypes = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".zip":  "application/zip",
}

// Associate picks the application that opens a file, from its extension
// first and then from its detected content type (walking up the mime
// hierarchy, so text/html content still matches a text/plain handler).
func (d *Directory) Associate(name string, head []byte) (string, bool) {
	apps := d.List()
	handles := func(mime string) (string, bool) {
		for _, app := range apps {
			for _, candidate := range app.MimeTypes {
				if strings.EqualFold(candidate, mime) {
					return app.Type, true
				}
			}
		}
		return "", false
	}

	if mime, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		if appType, ok := handles(mime); ok {
			return appType, true
		}
	}
	if len(head) == 0 {
		return "", false
	}

	for detected := mimetype.Detect(head); detected != nil; detected = detected.Parent() {
		for _, app := range apps {
			for _, candidate := range app.MimeTypes {
				if detected.Is(candidate) {
					return app.Type, true
				}
			}
		}
	}
	return "", false
}
