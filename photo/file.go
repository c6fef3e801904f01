package photo

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ReadFile loads a file from disk the way a file picker would hand it over: the MIME
// type comes from the extension, falling back to content sniffing.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read photo %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return File{
		Name: filepath.Base(path),
		Type: mimeType,
		Size: int64(len(data)),
		Data: data,
	}, nil
}
